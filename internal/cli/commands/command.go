package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"MemoGallery/internal/config"
)

// ErrUsage — аргументы не подходят команде; диспетчер печатает её Usage и выходит с кодом 2.
var ErrUsage = errors.New("usage")

// Command — подкоманда CLI галереи.
type Command interface {
	Name() string
	Description() string
	// Usage — строка вызова без глобальных флагов, например "add <file> <category> [id]".
	Usage() string
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

var registry = map[string]Command{}

// Out — общий writer для вывода CLI. В тестах подменяется буфером.
var Out io.Writer = os.Stdout

// RegisterCmd добавляет команду в реестр; вызывается из init() файла команды.
// Повторная регистрация имени заменяет прежнюю команду.
func RegisterCmd(cmd Command) {
	registry[strings.ToLower(cmd.Name())] = cmd
}

// Get ищет команду без учёта регистра.
func Get(name string) (Command, bool) {
	c, ok := registry[strings.ToLower(name)]
	return c, ok
}

// List возвращает команды, отсортированные по имени.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// переменные окружения, которые читает config.NewConfig
var envHelp = [][2]string{
	{"DATABASE_URI", "путь к файлу SQLite или postgres:// DSN"},
	{"BLOB_MAX_MB", "лимит размера одной записи, МБ"},
	{"BASE_URL", "адрес демона для status"},
	{"AI_BASE_URL", "корень удалённых AI-функций для import-url"},
}

// FormatGlobalUsage собирает общую справку: команды и переменные окружения.
func FormatGlobalUsage() string {
	var b strings.Builder
	b.WriteString("Memo Gallery CLI\n\nUsage:\n")
	b.WriteString("  gallery [-d <db path|postgres DSN>] [-blob-max-mb N] <command> [args]\n\nCommands:\n")
	for _, c := range List() {
		fmt.Fprintf(&b, "  %-28s %s\n", c.Usage(), c.Description())
	}
	b.WriteString("\nEnvironment:\n")
	for _, e := range envHelp {
		fmt.Fprintf(&b, "  %-28s %s\n", e[0], e[1])
	}
	return b.String()
}
