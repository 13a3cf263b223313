package logger

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var generalLogger = log.New(os.Stdout, "", 0)

// Set направляет логи в файл с ротацией и дублирует их в stdout
func Set(path string) {
	logFile := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	generalLogger = log.New(multiWriter, "", 0)
}

// Infoln записывает информационное сообщение, объединяя все аргументы
func Infoln(args ...interface{}) {
	logMessageConcat("[INFO]", 2, args...)
}

// Info записывает информационное сообщение с поддержкой форматирования
func Info(format string, args ...interface{}) {
	logMessage(format, "[INFO]", 2, args...)
}

// Debug записывает отладочное сообщение с поддержкой форматирования
func Debug(format string, args ...interface{}) {
	logMessage(format, "[DEBUG]", 2, args...)
}

// Error записывает сообщение об ошибке с поддержкой форматирования
func Error(format string, args ...interface{}) {
	logMessage(format, "[ERROR]", 2, args...)
}

// Warn записывает предупреждение с поддержкой форматирования
func Warn(format string, args ...interface{}) {
	logMessage(format, "[WARNING]", 2, args...)
}

// Fatal записывает критическое сообщение об ошибке и завершает программу
func Fatal(args ...interface{}) {
	logMessageConcat("[FATAL]", 2, args...)
	os.Exit(1)
}

// Fatalf записывает критическое сообщение об ошибке с форматированием и завершает программу
func Fatalf(format string, args ...interface{}) {
	logMessage(format, "[FATAL]", 2, args...)
	os.Exit(1)
}

// logMessage обрабатывает форматирование и определяет наличие chatId
func logMessage(format string, level string, skip int, args ...interface{}) {
	var chatID *int64
	var formatArgs []interface{}

	// Получаем информацию о вызывающем коде
	_, file, line, ok := runtime.Caller(skip)
	var caller string
	if ok {
		parts := strings.Split(file, "/")
		if len(parts) > 0 {
			caller = fmt.Sprintf("%s:%d:", parts[len(parts)-1], line)
		}
	}

	// Проверяем последний аргумент - если это int64, считаем его идентификатором чата
	if len(args) > 0 {
		if cid, ok := args[len(args)-1].(int64); ok {
			chatID = &cid
			formatArgs = args[:len(args)-1]
		} else {
			formatArgs = args
		}
	}

	var message string
	if len(formatArgs) > 0 {
		message = fmt.Sprintf(format, formatArgs...)
	} else {
		message = format
	}

	now := time.Now().Format("2006/01/02 15:04:05")

	if chatID != nil {
		generalLogger.Printf("%s %s %s [CHAT:%d] %s", now, caller, level, *chatID, message)
	} else {
		generalLogger.Printf("%s %s %s %s", now, caller, level, message)
	}
}

// logMessageConcat обрабатывает конкатенацию аргументов
func logMessageConcat(level string, skip int, args ...interface{}) {
	var chatID *int64
	var messageArgs []interface{}

	_, file, line, ok := runtime.Caller(skip)
	var caller string
	if ok {
		parts := strings.Split(file, "/")
		if len(parts) > 0 {
			caller = fmt.Sprintf("%s:%d:", parts[len(parts)-1], line)
		}
	}

	if len(args) > 0 {
		if cid, ok := args[len(args)-1].(int64); ok {
			chatID = &cid
			messageArgs = args[:len(args)-1]
		} else {
			messageArgs = args
		}
	}

	var parts []string
	for _, arg := range messageArgs {
		parts = append(parts, fmt.Sprintf("%v", arg))
	}
	message := strings.Join(parts, " ")

	now := time.Now().Format("2006/01/02 15:04:05")

	if chatID != nil {
		generalLogger.Printf("%s %s %s [CHAT:%d] %s", now, caller, level, *chatID, message)
	} else {
		generalLogger.Printf("%s %s %s %s", now, caller, level, message)
	}
}

// GetChatLogs выводит все логи для конкретного чата через callback функцию
func GetChatLogs(logFilePath string, chatID int64, writer func(string)) error {
	logMsg := func(msg string) {
		if writer != nil {
			writer(msg)
		} else {
			fmt.Println(msg)
		}
	}

	file, err := os.Open(logFilePath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	chatPattern := fmt.Sprintf("[CHAT:%d]", chatID)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, chatPattern) {
			logMsg(line)
		}
	}

	return scanner.Err()
}
