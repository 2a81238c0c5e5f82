package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTFallsBackToChineseThenKey(t *testing.T) {
	if got := T(LocaleEN, "error.empty_order"); got != "Your cart is empty" {
		t.Fatalf("unexpected english message: %s", got)
	}
	if got := T("fr", "error.empty_order"); got != "购物车为空，无法下单" {
		t.Fatalf("unexpected fallback message: %s", got)
	}
	if got := T(LocaleEN, "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("missing key should return itself, got %s", got)
	}
}

func TestSprintfFormatsArgs(t *testing.T) {
	if got := Sprintf(LocaleEN, "error.password_min_length", 6); got != "Password must be at least 6 characters" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}

func TestNormalizeLocaleUnsupportedFallsBackToChinese(t *testing.T) {
	cases := map[string]string{
		"":      LocaleZH,
		"fr":    LocaleZH,
		"de-DE": LocaleZH,
		"en":    LocaleEN,
		"en-GB": LocaleEN,
		"zh-TW": LocaleZH,
	}
	for input, want := range cases {
		if got := NormalizeLocale(input); got != want {
			t.Fatalf("NormalizeLocale(%q) want %s got %s", input, want, got)
		}
	}
}

func newLocaleContext(target string, headers map[string]string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	for key, value := range headers {
		c.Request.Header.Set(key, value)
	}
	return c
}

func TestResolveLocaleOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := newLocaleContext("/?lang=en", map[string]string{"Accept-Language": "zh-CN"})
	if got := ResolveLocale(c); got != LocaleEN {
		t.Fatalf("query lang should win, got %s", got)
	}

	c = newLocaleContext("/", map[string]string{"X-Locale": "en-US", "Accept-Language": "zh-CN"})
	if got := ResolveLocale(c); got != LocaleEN {
		t.Fatalf("x-locale should win over accept-language, got %s", got)
	}

	c = newLocaleContext("/", map[string]string{"Accept-Language": "en-GB,en;q=0.9,zh;q=0.5"})
	if got := ResolveLocale(c); got != LocaleEN {
		t.Fatalf("accept-language should resolve english, got %s", got)
	}

	c = newLocaleContext("/", map[string]string{"Accept-Language": "fr-FR,fr;q=0.9"})
	if got := ResolveLocale(c); got != LocaleZH {
		t.Fatalf("unsupported accept-language should fall back to zh-CN, got %s", got)
	}

	c = newLocaleContext("/", nil)
	if got := ResolveLocale(c); got != LocaleZH {
		t.Fatalf("default locale should be zh-CN, got %s", got)
	}
}
