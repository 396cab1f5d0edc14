package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации. Неизвестное значение даёт INFO.
func ParseLevel(s string) LogLevel {
	switch s {
	case "trace", "TRACE":
		return TRACE
	case "debug", "DEBUG":
		return DEBUG
	case "warn", "WARN", "warning", "WARNING":
		return WARN
	case "error", "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger пишет сообщения в консоль и, опционально, в файл
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel

	// ключи уже выведенных "no flood" сообщений
	flooded sync.Map
}

// Глобальный экземпляр логгера; по умолчанию только консоль
var (
	defaultLogger = NewConsoleLogger(os.Stdout, INFO)
	globalMu      sync.RWMutex
	globalLogger  = defaultLogger
)

// NewConsoleLogger создаёт логгер без файла
func NewConsoleLogger(w io.Writer, level LogLevel) *Logger {
	return &Logger{
		consoleLogger:   log.New(w, "", log.LstdFlags),
		minConsoleLevel: level,
		minFileLevel:    level,
	}
}

// NewLogger создаёт логгер компонента с файлом в каталоге dir
func NewLogger(component, dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	return &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		fileLogger:      log.New(file, "", log.LstdFlags),
		file:            file,
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}, nil
}

// InitLogger инициализирует глобальный логгер с файлом в dir.
// Пустой dir оставляет только консоль.
func InitLogger(dir string, consoleLevel LogLevel) error {
	if err := GetLoggerManager().Configure(dir, consoleLevel); err != nil {
		return err
	}

	if dir == "" {
		SetGlobal(NewConsoleLogger(os.Stdout, consoleLevel))
		return nil
	}

	l, err := NewLogger("blockstate", dir)
	if err != nil {
		return err
	}
	l.minConsoleLevel = consoleLevel
	SetGlobal(l)
	return nil
}

// SetGlobal заменяет глобальный логгер (используется в тестах)
func SetGlobal(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

func global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// CloseLogger закрывает систему логирования
func CloseLogger() {
	_ = GetLoggerManager().CloseAll()
	_ = global().Close()
}

// Close закрывает файл логгера
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevels меняет пороги вывода
func (l *Logger) SetLevels(consoleLevel, fileLevel LogLevel) {
	l.minConsoleLevel = consoleLevel
	l.minFileLevel = fileLevel
}

// IsDebug сообщает, выводятся ли DEBUG сообщения в консоль
func (l *Logger) IsDebug() bool {
	return l.minConsoleLevel <= DEBUG
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// NoFloodWarn выводит предупреждение только при первом появлении key.
// Нужен для ошибок, повторяющихся на каждом блоке при рендере.
func (l *Logger) NoFloodWarn(key string, format string, args ...interface{}) {
	if _, seen := l.flooded.LoadOrStore(key, struct{}{}); seen {
		return
	}
	l.log(WARN, format, args...)
}

// log внутренняя функция для логирования
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf("[%s] %s", level.String(), fmt.Sprintf(format, args...))
	if l.component != "" {
		message = fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))
	}

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// Trace логирует сообщение уровня TRACE
func Trace(format string, args ...interface{}) { global().Trace(format, args...) }

// Debug логирует сообщение уровня DEBUG
func Debug(format string, args ...interface{}) { global().Debug(format, args...) }

// Info логирует сообщение уровня INFO
func Info(format string, args ...interface{}) { global().Info(format, args...) }

// Warn логирует сообщение уровня WARN
func Warn(format string, args ...interface{}) { global().Warn(format, args...) }

// Error логирует сообщение уровня ERROR
func Error(format string, args ...interface{}) { global().Error(format, args...) }

// NoFloodWarn см. Logger.NoFloodWarn
func NoFloodWarn(key string, format string, args ...interface{}) {
	global().NoFloodWarn(key, format, args...)
}
