package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

type levelStyle struct {
	name     string
	level    *color.Color
	category *color.Color
}

var levelStyles = map[LogLevel]levelStyle{
	DEBUG: {"DEBUG", color.New(color.FgCyan), color.New(color.FgCyan, color.Bold)},
	INFO:  {"INFO", color.New(color.FgGreen), color.New(color.FgGreen, color.Bold)},
	WARN:  {"WARN", color.New(color.FgYellow), color.New(color.FgYellow, color.Bold)},
	ERROR: {"ERROR", color.New(color.FgRed, color.Bold), color.New(color.FgRed, color.Bold)},
	FATAL: {"FATAL", color.New(color.FgRed, color.Bold), color.New(color.FgRed, color.Bold)},
}

var (
	timeColor   = color.New(color.FgBlue)
	sourceColor = color.New(color.FgMagenta)
)

func (lv LogLevel) String() string {
	if s, ok := levelStyles[lv]; ok {
		return s.name
	}
	return "INFO"
}

// ParseLevel maps LOG_LEVEL values; unknown values fall back to INFO.
func ParseLevel(s string) LogLevel {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return WARN
	}
	for lv, style := range levelStyles {
		if style.name == name {
			return lv
		}
	}
	return INFO
}

// LogEntry is one line of the JSON log file.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	file     *os.File
	minLevel LogLevel
	exit     func(int)
}

// NewLogger writes colored lines to stdout and, when dir is not empty, JSON
// lines to <dir>/<service>-<date>.log.
func NewLogger(service, dir string) *Logger {
	l := New(os.Stdout)
	if dir == "" {
		return l
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatal("Failed to create logs directory:", err)
	}
	name := filepath.Join(dir, fmt.Sprintf("%s-%s.log", service, time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatal("Failed to create log file:", err)
	}
	l.file = f
	l.Debug("LOGGER", fmt.Sprintf("Log file: %s", name))
	return l
}

// New builds a logger writing console lines to w only.
func New(w io.Writer) *Logger {
	return &Logger{out: w, minLevel: DEBUG, exit: os.Exit}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.minLevel = level
	l.mu.Unlock()
}

func (l *Logger) write(level LogLevel, category, message string) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     level.String(),
		Category:  strings.ToUpper(category),
		Message:   message,
	}
	// skip write and the exported level method
	if _, file, line, ok := runtime.Caller(2); ok {
		entry.File, entry.Line = filepath.Base(file), line
	}

	fmt.Fprintln(l.out, consoleLine(level, entry))
	if l.file != nil {
		if b, err := json.Marshal(entry); err == nil {
			l.file.Write(append(b, '\n'))
		}
	}
}

func consoleLine(level LogLevel, entry LogEntry) string {
	style, ok := levelStyles[level]
	if !ok {
		style = levelStyles[INFO]
	}

	var b strings.Builder
	b.WriteString(timeColor.Sprint(entry.Timestamp[11:19]))
	b.WriteByte(' ')
	b.WriteString(style.level.Sprintf("%-5s", entry.Level))
	b.WriteByte(' ')
	b.WriteString(style.category.Sprintf("[%-10s]", entry.Category))
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	if entry.File != "" && entry.Line > 0 {
		b.WriteString(sourceColor.Sprintf(" (%s:%d)", entry.File, entry.Line))
	}
	return b.String()
}

func (l *Logger) Debug(category, message string) { l.write(DEBUG, category, message) }
func (l *Logger) Info(category, message string)  { l.write(INFO, category, message) }
func (l *Logger) Warn(category, message string)  { l.write(WARN, category, message) }
func (l *Logger) Error(category, message string) { l.write(ERROR, category, message) }

// Fatal logs, closes the log file and exits with status 1.
func (l *Logger) Fatal(category, message string) {
	l.write(FATAL, category, message)
	l.Close()
	l.exit(1)
}

func (l *Logger) LogSeed(action, name, message string) {
	l.Info("SEED", fmt.Sprintf("[%s] %s - %s", action, name, message))
}

func (l *Logger) LogMigration(action, name, message string) {
	l.Info("MIGRATION", fmt.Sprintf("[%s] %s - %s", action, name, message))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
