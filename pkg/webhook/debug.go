package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/subwest/bonus-bridge/pkg/logger"
)

// receiveDebug сохраняет сырой входящий запрос в файл для ручного разбора.
// Эндпоинт отвечает успехом всегда, в том числе при нечитаемом JSON —
// тогда в дамп попадает сама ошибка разбора.
func (s *Server) receiveDebug(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Warn("отладочный дамп: чтение тела: %v", err)
		c.String(http.StatusOK, "OK")
		return
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=== %s %s %s ===\n", time.Now().Format(time.RFC3339), c.Request.Method, c.Request.URL.Path)

	buf.WriteString("--- headers ---\n")
	if err := c.Request.Header.Write(&buf); err != nil {
		fmt.Fprintf(&buf, "ошибка записи заголовков: %v\n", err)
	}

	buf.WriteString("--- body ---\n")
	buf.Write(body)
	buf.WriteString("\n--- json ---\n")

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		fmt.Fprintf(&buf, "ошибка разбора JSON: %v\n", err)
	} else {
		pretty, _ := json.MarshalIndent(parsed, "", "  ")
		buf.Write(pretty)
		buf.WriteString("\n")
	}

	name := fmt.Sprintf("bitrix_debug_%d.txt", time.Now().UnixNano())
	path := filepath.Join(s.dumpDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		logger.Warn("отладочный дамп: запись %s: %v", path, err)
	} else {
		logger.Debug("отладочный дамп записан в %s", path)
	}

	c.String(http.StatusOK, "OK")
}
