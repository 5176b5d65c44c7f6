package local

import (
	"bytes"
	"testing"
)

func TestTextSetFormat(t *testing.T) {
	set := NewSet("Retry in %ds.", NewTrans(Rus, "Повторите через %d с."))

	if got := set.Format(Eng, 3); got != "Retry in 3s." {
		t.Errorf("Unexpected default text %q", got)
	}
	if got := set.Format(Rus, 3); got != "Повторите через 3 с." {
		t.Errorf("Unexpected translation %q", got)
	}
	if got := set.Format(Language("de"), 5); got != "Retry in 5s." {
		t.Errorf("Expected fallback to default, got %q", got)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ParseLanguage("RU"))
	p.Println(NewSet("Hello, %s", NewTrans(Rus, "Привет, %s")), "мир")

	if buf.String() != "Привет, мир\n" {
		t.Errorf("Unexpected output %q", buf.String())
	}
}
