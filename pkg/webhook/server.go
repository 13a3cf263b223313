package webhook

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/subwest/bonus-bridge/pkg/logger"
)

// Server — HTTP-приёмник вебхуков. Оба боевых эндпоинта подтверждают приём
// всегда: внешние платформы не должны повторять доставку из-за наших
// внутренних ошибок.
type Server struct {
	engine  *gin.Engine
	relay   *Relay
	dumpDir string
}

func NewServer(relay *Relay, dumpDir string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:  engine,
		relay:   relay,
		dumpDir: dumpDir,
	}

	engine.POST("/webhook/bitrix", s.receiveBitrix)
	engine.POST("/webhook/telegram", s.receiveTelegram)
	engine.POST("/bitrix-to-telegram", s.receiveDebug)

	return s
}

// Handler отдаёт корневой http.Handler для запуска в http.Server
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) receiveBitrix(c *gin.Context) {
	var ev BitrixEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		logger.Warn("вебхук Bitrix: некорректный JSON: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := s.relay.HandleBitrixEvent(c.Request.Context(), ev); err != nil {
		logger.Error("вебхук Bitrix: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) receiveTelegram(c *gin.Context) {
	var upd tgbotapi.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		logger.Warn("вебхук Telegram: некорректный JSON: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if upd.Message != nil {
		if err := s.relay.HandleTelegramMessage(c.Request.Context(), upd.Message.Chat.ID, upd.Message.Text); err != nil {
			logger.Error("вебхук Telegram: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// anyID нормализует идентификатор из события: Bitrix24 присылает его
// то числом, то строкой
func anyID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.Itoa(int(id))
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

func parseChatID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
