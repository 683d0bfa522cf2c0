// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/utils"
)

// I18nMiddleware picks the first supported language of the Accept-Language
// header, e.g. "zh-TW,zh;q=0.9,en;q=0.8".
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextLang, negotiateLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

func negotiateLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		switch tag {
		case "zh-TW", "zh-Hant", "zh_TW", "zh-HK":
			tag = "zh_TW"
		case "en-US", "en-GB":
			tag = "en"
		}
		if i18n.Supported(tag) {
			return tag
		}
	}
	return i18n.DefaultLang
}
