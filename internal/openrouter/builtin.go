package openrouter

import "github.com/iamvkosarev/ai-ide-gateway/internal/model"

// BuiltinModels is served when no backend can answer a models request.
var BuiltinModels = []model.ModelInfo{
	{ID: "openai/gpt-4o-mini", Name: "GPT-4o mini", ContextLength: 128000},
	{ID: "openai/gpt-4o", Name: "GPT-4o", ContextLength: 128000},
	{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet", ContextLength: 200000},
	{ID: "google/gemini-flash-1.5", Name: "Gemini Flash 1.5", ContextLength: 1000000},
	{ID: "qwen/qwen-2.5-coder-32b-instruct", Name: "Qwen 2.5 Coder 32B", ContextLength: 32768},
}

func BuiltinModelList() model.ModelList {
	models := make([]model.ModelInfo, len(BuiltinModels))
	copy(models, BuiltinModels)
	return model.ModelList{Models: models, Source: model.ModelSourceBuiltin}
}
