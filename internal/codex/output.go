package codex

import (
	"regexp"
	"strings"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

var (
	ansiEscapePattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
	ansiOrphanPattern = regexp.MustCompile(`\[[0-9;]*m`)

	strictDeviceCodePattern = regexp.MustCompile(`\b[A-Z0-9]{4}-[A-Z0-9]{5}\b`)
	deviceCodePattern       = regexp.MustCompile(`\b([A-Z0-9]{4})[^A-Z0-9\r\n]{0,3}([A-Z0-9]{5})\b`)
	splitDeviceCodePattern  = regexp.MustCompile(`\b([A-Z0-9](?:[^A-Z0-9]{1,3}[A-Z0-9]){8})\b`)
	verificationURLPattern  = regexp.MustCompile(`https://auth\.openai\.com/codex/device`)
)

// Nine letters the CLI prints in its banner that are not a code.
const bannerWord = "AUTHUSAGE"

// CleanOutput strips terminal colouring and non-ASCII glyphs from CLI output.
func CleanOutput(text string) string {
	text = ansiEscapePattern.ReplaceAllString(text, "")
	text = ansiOrphanPattern.ReplaceAllString(text, "")
	return ASCIISafe(strings.TrimSpace(text))
}

func ASCIISafe(text string) string {
	return strings.Map(
		func(r rune) rune {
			if r > 0x7f {
				return '?'
			}
			return r
		}, text,
	)
}

// NormalizeDeviceCode formats nine alphanumerics as XXXX-XXXXX.
func NormalizeDeviceCode(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	alnum := b.String()
	if len(alnum) != 9 || alnum == bannerWord {
		return "", false
	}
	code := alnum[:4] + "-" + alnum[4:]
	return code, model.IsDeviceCode(code)
}

// ExtractDeviceCode finds a device code in CLI output. A literal "ABCD-EFGHI"
// wins; otherwise looser separators and one-character-per-line rendering are
// accepted.
func ExtractDeviceCode(output string) (string, bool) {
	for _, m := range strictDeviceCodePattern.FindAllString(output, -1) {
		if code, ok := NormalizeDeviceCode(m); ok {
			return code, true
		}
	}
	upper := strings.ToUpper(output)
	for _, m := range deviceCodePattern.FindAllStringSubmatch(upper, -1) {
		if code, ok := NormalizeDeviceCode(m[1] + m[2]); ok {
			return code, true
		}
	}
	for _, m := range splitDeviceCodePattern.FindAllStringSubmatch(upper, -1) {
		if code, ok := NormalizeDeviceCode(m[1]); ok {
			return code, true
		}
	}
	return "", false
}

func ExtractVerificationURL(output string) (string, bool) {
	url := verificationURLPattern.FindString(output)
	return url, url != ""
}
