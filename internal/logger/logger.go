package logger

import (
	"fmt"
	"log"
	"os"
)

var (
	// Debug flag to control debug logging
	debugEnabled = false
	// The logger instances; usable before Init so packages can log in tests
	debugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	infoLogger  = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime)
	warnLogger  = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime)
	errorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
)

// Init sets the debug flag for the process.
func Init(debug bool) {
	debugEnabled = debug
	if debugEnabled {
		Debug("Debug logging enabled")
	}
}

// Debug logs a debug message if debug mode is enabled
func Debug(format string, v ...interface{}) {
	if debugEnabled {
		debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	infoLogger.Output(2, fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	warnLogger.Output(2, fmt.Sprintf(format, v...))
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	errorLogger.Output(2, fmt.Sprintf(format, v...))
}

// IsDebugEnabled returns whether debug logging is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// Component-tagged helpers. Each subsystem logs through its own set so log
// lines can be grepped by origin.

func componentDebug(component, format string, v ...interface{}) {
	if debugEnabled {
		debugLogger.Output(3, component+": "+fmt.Sprintf(format, v...))
	}
}

func componentInfo(component, format string, v ...interface{}) {
	infoLogger.Output(3, component+": "+fmt.Sprintf(format, v...))
}

func componentWarn(component, format string, v ...interface{}) {
	warnLogger.Output(3, component+": "+fmt.Sprintf(format, v...))
}

func componentError(component, format string, v ...interface{}) {
	errorLogger.Output(3, component+": "+fmt.Sprintf(format, v...))
}

// SearchDebug logs a debug message from the retrieval engine
func SearchDebug(format string, v ...interface{}) { componentDebug("SEARCH", format, v...) }

// SearchInfo logs an info message from the retrieval engine
func SearchInfo(format string, v ...interface{}) { componentInfo("SEARCH", format, v...) }

// SearchWarn logs a warning from the retrieval engine
func SearchWarn(format string, v ...interface{}) { componentWarn("SEARCH", format, v...) }

// SyncInfo logs an info message from the catalog indexer
func SyncInfo(format string, v ...interface{}) { componentInfo("SYNC", format, v...) }

// SyncWarn logs a warning from the catalog indexer
func SyncWarn(format string, v ...interface{}) { componentWarn("SYNC", format, v...) }

// SyncError logs an error from the catalog indexer
func SyncError(format string, v ...interface{}) { componentError("SYNC", format, v...) }

// LLMDebug logs a debug message from the LLM client
func LLMDebug(format string, v ...interface{}) { componentDebug("LLM", format, v...) }

// LLMInfo logs an info message from the LLM client
func LLMInfo(format string, v ...interface{}) { componentInfo("LLM", format, v...) }

// LLMWarn logs a warning from the LLM client
func LLMWarn(format string, v ...interface{}) { componentWarn("LLM", format, v...) }

// LLMError logs an error from the LLM client
func LLMError(format string, v ...interface{}) { componentError("LLM", format, v...) }

// TelegramDebug logs a debug message from the Telegram surface
func TelegramDebug(format string, v ...interface{}) { componentDebug("TELEGRAM", format, v...) }

// TelegramInfo logs an info message from the Telegram surface
func TelegramInfo(format string, v ...interface{}) { componentInfo("TELEGRAM", format, v...) }

// TelegramWarn logs a warning from the Telegram surface
func TelegramWarn(format string, v ...interface{}) { componentWarn("TELEGRAM", format, v...) }
