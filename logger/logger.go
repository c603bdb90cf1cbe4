package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// replaced by Init; until then log to stderr so early failures are visible
var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel).With().Timestamp().Logger()

// Info writes record into os.stdout with log level INFO
func Info(v ...interface{}) {
	if len(v) == 1 {
		logger.Info().Interface("message", v[0]).Send()
	} else {
		logger.Info().Msg(fmt.Sprint(v...))
	}
}

// Info writes record into os.stdout with log level INFO
func Infof(format string, v ...interface{}) {
	logger.Info().Msgf(format, v...)
}

// Debug writes record into os.stdout with log level DEBUG
func Debug(v ...interface{}) {
	logger.Debug().Msg(fmt.Sprint(v...))
}

// Debugf writes record into os.stdout with log level DEBUG
func Debugf(format string, v ...interface{}) {
	logger.Debug().Msgf(format, v...)
}

// Error writes record into os.stdout with log level ERROR
func Error(v ...interface{}) {
	logger.Error().Msg(fmt.Sprint(v...))
}

// Error writes record into os.stdout with log level ERROR
func Errorf(format string, v ...interface{}) {
	logger.Error().Msgf(format, v...)
}

// Fatal writes record into os.stdout with log level ERROR and exits
func Fatal(v ...interface{}) {
	logger.Fatal().Msg(fmt.Sprint(v...))
	os.Exit(1)
}

// Fatal writes record into os.stdout with log level ERROR
func Fatalf(format string, v ...interface{}) {
	logger.Fatal().Msgf(format, v...)
	os.Exit(1)
}

// Warn writes record into os.stdout with log level WARN
func Warn(v ...interface{}) {
	logger.Warn().Msg(fmt.Sprint(v...))
}

// Warn writes record into os.stdout with log level WARN
func Warnf(format string, v ...interface{}) {
	logger.Warn().Msgf(format, v...)
}

// FileLogger creates a new file or overwrites an existing one in the config folder
func FileLogger(content any, fileName, fileExtension string) error {
	// get config folder
	filePath := viper.GetString("CONFIG_FOLDER")
	if filePath == "" {
		return fmt.Errorf("config folder is not set")
	}
	contentBytes, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal content: %s", err)
	}

	fullPath := filepath.Join(filePath, fileName+fileExtension)

	// Create or truncate the file
	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create or open file: %s", err)
	}
	defer file.Close()

	_, err = file.Write(contentBytes)
	if err != nil {
		return fmt.Errorf("failed to write data to file: %s", err)
	}

	return nil
}

// Init wires the console writer and, when CONFIG_FOLDER is set, a rotating
// log file under <CONFIG_FOLDER>/logs.
func Init() {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	console := newConsoleWriter(os.Stdout)

	writers := []io.Writer{console}
	if folder := viper.GetString("CONFIG_FOLDER"); folder != "" {
		now := time.Now().UTC()
		timestamp := fmt.Sprintf("%d-%02d-%02d_%02d-%02d-%02d", now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second())
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(folder, "logs", fmt.Sprintf("mapsource_%s", timestamp), "mapsource.log"),
			MaxSize:    100, // Max size in MB before log rotation
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
}

// LogColors defines ANSI color codes for log levels
var logColors = map[string]string{
	"debug": "\033[36m", // Cyan
	"info":  "\033[32m", // Green
	"warn":  "\033[33m", // Yellow
	"error": "\033[31m", // Red
	"fatal": "\033[31m", // Red
}

// consoleWriter picks the formatter from the event level zerolog hands to
// WriteLevel, so concurrent events never share formatting state.
type consoleWriter struct {
	plain zerolog.ConsoleWriter
	red   zerolog.ConsoleWriter
}

func newConsoleWriter(out io.Writer) consoleWriter {
	return consoleWriter{
		plain: newConsole(out, false),
		red:   newConsole(out, true),
	}
}

func (w consoleWriter) Write(p []byte) (int, error) {
	return w.plain.Write(p)
}

func (w consoleWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level == zerolog.ErrorLevel || level == zerolog.FatalLevel {
		return w.red.Write(p)
	}

	return w.plain.Write(p)
}

func newConsole(out io.Writer, redMessage bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			return fmt.Sprintf("%s%s\033[0m", logColors[level], strings.ToUpper(level))
		},
		FormatMessage: func(i interface{}) string {
			msg := ""
			switch v := i.(type) {
			case string:
				msg = v
			case nil:
				return ""
			default:
				jsonMsg, err := json.Marshal(v)
				if err != nil {
					return err.Error()
				}
				return string(jsonMsg)
			}
			if redMessage {
				msg = fmt.Sprintf("\033[31m%s\033[0m", msg) // Make entire message red for error level
			}
			return msg
		},
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("\033[90m%s\033[0m", i)
		},
	}
}
