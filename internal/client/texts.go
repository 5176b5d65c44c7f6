package client

import "github.com/iamvkosarev/ai-ide-gateway/pkg/local"

var (
	textWelcome = local.NewSet(
		"AI IDE chat. Session %q, model %s. Type /help for commands.",
		local.NewTrans(local.Rus, "AI IDE чат. Сессия %q, модель %s. Команды: /help."),
	)
	textHelp = local.NewSet(
		`Commands:
  /stop                 stop the current answer
  /queue                show queued prompts
  /model <id>           select a model (/model - to clear the custom one)
  /provider <name>      auto, openrouter or codex
  /key <api key>        set the OpenRouter key (/key - to clear)
  /system <prompt>      set the global system prompt
  /theme <name>         set the theme
  /models               list models of the current provider
  /recommend <message>  suggest a model for a message
  /attach <image path>  attach an image to the next prompt
  /files                list project files
  /download [path]      save the project as a zip archive
  /new, /sessions, /switch <n>, /delete
  /connect, /status, /disconnect   ChatGPT Codex account
  /lang <en|ru>, /quit`,
		local.NewTrans(
			local.Rus, `Команды:
  /stop                 остановить ответ
  /queue                показать очередь
  /model <id>           выбрать модель (/model - сбросить свою)
  /provider <имя>       auto, openrouter или codex
  /key <ключ>           ключ OpenRouter (/key - удалить)
  /system <текст>       общий системный промпт
  /theme <имя>          тема
  /models               модели текущего провайдера
  /recommend <текст>    подобрать модель
  /attach <путь>        приложить изображение к следующему сообщению
  /files                файлы проекта
  /download [путь]      сохранить проект в zip
  /new, /sessions, /switch <n>, /delete
  /connect, /status, /disconnect   аккаунт ChatGPT Codex
  /lang <en|ru>, /quit`,
		),
	)
	textUnknownCommand = local.NewSet(
		"Unknown command %s.",
		local.NewTrans(local.Rus, "Неизвестная команда %s."),
	)
	textQueued = local.NewSet(
		"Queued (%d waiting).",
		local.NewTrans(local.Rus, "В очереди (ожидает: %d)."),
	)
	textQueueEmpty = local.NewSet(
		"The queue is empty.",
		local.NewTrans(local.Rus, "Очередь пуста."),
	)
	textQueueItem = local.NewSet("%d. %s")
	textNothingToStop = local.NewSet(
		"Nothing is streaming.",
		local.NewTrans(local.Rus, "Сейчас ничего не генерируется."),
	)
	textError = local.NewSet(
		"Error: %v",
		local.NewTrans(local.Rus, "Ошибка: %v"),
	)
	textSaved = local.NewSet(
		"Saved.",
		local.NewTrans(local.Rus, "Сохранено."),
	)
	textFilesWritten = local.NewSet(
		"Updated files: %s",
		local.NewTrans(local.Rus, "Обновлены файлы: %s"),
	)
	textNoFiles = local.NewSet(
		"The project has no files.",
		local.NewTrans(local.Rus, "В проекте нет файлов."),
	)
	textFileItem = local.NewSet(
		"  %s (%d bytes)",
		local.NewTrans(local.Rus, "  %s (%d байт)"),
	)
	textDownloaded = local.NewSet(
		"Project saved to %s.",
		local.NewTrans(local.Rus, "Проект сохранён в %s."),
	)
	textAttached = local.NewSet(
		"Attached %s (%s).",
		local.NewTrans(local.Rus, "Приложено %s (%s)."),
	)
	textModelItem = local.NewSet("  %s")
	textModelsSource = local.NewSet(
		"%d models (%s).",
		local.NewTrans(local.Rus, "Моделей: %d (%s)."),
	)
	textRecommended = local.NewSet(
		"Recommended: %s. %s",
		local.NewTrans(local.Rus, "Рекомендуется: %s. %s"),
	)
	textNoRecommendation = local.NewSet(
		"No recommendation: %s",
		local.NewTrans(local.Rus, "Нет рекомендации: %s"),
	)
	textSessionItem = local.NewSet(
		"%s %d. %s (%d messages)",
		local.NewTrans(local.Rus, "%s %d. %s (сообщений: %d)"),
	)
	textSessionActive = local.NewSet(
		"Session %q.",
		local.NewTrans(local.Rus, "Сессия %q."),
	)
	textBusy = local.NewSet(
		"Wait for the answer or /stop it first.",
		local.NewTrans(local.Rus, "Дождитесь ответа или остановите его через /stop."),
	)
	textCodexCode = local.NewSet(
		"Open %s and enter the code %s.",
		local.NewTrans(local.Rus, "Откройте %s и введите код %s."),
	)
	textCodexOutput = local.NewSet("Codex: %s")
	textCodexConnected = local.NewSet(
		"ChatGPT Codex connected.",
		local.NewTrans(local.Rus, "ChatGPT Codex подключён."),
	)
	textCodexNotConnected = local.NewSet(
		"ChatGPT Codex is not connected: %s",
		local.NewTrans(local.Rus, "ChatGPT Codex не подключён: %s"),
	)
	textUsage = local.NewSet(
		"Usage: %s",
		local.NewTrans(local.Rus, "Использование: %s"),
	)
)
