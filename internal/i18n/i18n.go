package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleZH = "zh-CN"
	LocaleEN = "en-US"
)

var matcher = language.NewMatcher([]language.Tag{
	language.SimplifiedChinese,
	language.AmericanEnglish,
})

// T 取文案，缺失时回落到中文，再缺失返回 key
func T(locale, key string) string {
	if messages, ok := catalogs[NormalizeLocale(locale)]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[LocaleZH][key]; ok {
		return msg
	}
	return key
}

// Sprintf 取文案并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// NormalizeLocale 归一化语言标识
func NormalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return LocaleZH
	}
	return matchLocale(language.Make(locale))
}

// ResolveLocale 依次读取 lang 参数、X-Locale 与 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return LocaleZH
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	if lang := strings.TrimSpace(c.GetHeader("X-Locale")); lang != "" {
		return NormalizeLocale(lang)
	}
	accept := strings.TrimSpace(c.GetHeader("Accept-Language"))
	if accept == "" {
		return LocaleZH
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return LocaleZH
	}
	return matchLocale(tags...)
}

// matchLocale 不支持的语言回落到中文
func matchLocale(tags ...language.Tag) string {
	tag, _, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return LocaleZH
	}
	return fromTag(tag)
}

func fromTag(tag language.Tag) string {
	base, _ := tag.Base()
	if base.String() == "en" {
		return LocaleEN
	}
	return LocaleZH
}
