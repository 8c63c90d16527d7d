// Package etlerr описывает классы фатальных ошибок ETL-процесса.
package etlerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code классифицирует фатальную ошибку ETL
type Code string

const (
	CodeParse         Code = "PARSE_ERROR"
	CodeDataIntegrity Code = "DATA_INTEGRITY_ERROR"
	CodeSourceMissing Code = "SOURCE_NOT_FOUND"
	CodePersistence   Code = "PERSISTENCE_ERROR"
	CodeUnknown       Code = "UNKNOWN"
)

// Коды завершения процесса для каждого класса ошибок
const (
	ExitOK            = 0
	ExitUnknown       = 1
	ExitParse         = 2
	ExitDataIntegrity = 3
	ExitSourceMissing = 4
	ExitPersistence   = 5
)

// ParseError возникает, когда текст поля не удаётся привести к типу
type ParseError struct {
	Source string // имя исходного файла
	Row    int    // номер строки в файле (1 = первая строка данных), 0 если неизвестен
	Key    string // естественный ключ строки (OrderID / имя продукта)
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("ошибка разбора")
	if e.Field != "" {
		fmt.Fprintf(&b, " поля %q", e.Field)
	}
	fmt.Fprintf(&b, " (значение %q)", e.Value)
	writeLocation(&b, e.Source, e.Row, e.Key)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// DataIntegrityError возникает, когда отсутствует обязательное поле
// или нарушена уникальность естественного ключа
type DataIntegrityError struct {
	Source string
	Row    int
	Key    string
	Field  string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	var b strings.Builder
	b.WriteString("нарушение целостности данных")
	if e.Field != "" {
		fmt.Fprintf(&b, " в поле %q", e.Field)
	}
	writeLocation(&b, e.Source, e.Row, e.Key)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

// SourceNotFoundError возникает, когда входной файл отсутствует
type SourceNotFoundError struct {
	Source string // логическое имя источника (orders, order_details, ...)
	Path   string
	Err    error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("источник %s не найден: %s", e.Source, e.Path)
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// PersistenceError возникает, когда запись таблицы в хранилище не удалась.
// Ранее записанные таблицы могут остаться заменёнными.
type PersistenceError struct {
	Backend string
	Table   string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("ошибка хранилища (%s): %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("ошибка записи таблицы %s (%s): %v", e.Table, e.Backend, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func writeLocation(b *strings.Builder, source string, row int, key string) {
	if source == "" && row == 0 && key == "" {
		return
	}
	b.WriteString(" [")
	var parts []string
	if source != "" {
		parts = append(parts, source)
	}
	if row > 0 {
		parts = append(parts, fmt.Sprintf("строка %d", row))
	}
	if key != "" {
		parts = append(parts, "ключ "+key)
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString("]")
}

// AtRow дополняет ParseError контекстом строки. Ошибки других типов
// возвращаются без изменений.
func AtRow(err error, source string, row int, key, field string) error {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return err
	}
	located := *pe
	located.Source = source
	located.Row = row
	located.Key = key
	if located.Field == "" {
		located.Field = field
	}
	return &located
}

// CodeOf возвращает класс ошибки
func CodeOf(err error) Code {
	var (
		pe  *ParseError
		die *DataIntegrityError
		snf *SourceNotFoundError
		per *PersistenceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &snf):
		return CodeSourceMissing
	case errors.As(err, &pe):
		return CodeParse
	case errors.As(err, &die):
		return CodeDataIntegrity
	case errors.As(err, &per):
		return CodePersistence
	default:
		return CodeUnknown
	}
}

// ExitCode сопоставляет ошибку коду завершения процесса
func ExitCode(err error) int {
	switch CodeOf(err) {
	case "":
		return ExitOK
	case CodeParse:
		return ExitParse
	case CodeDataIntegrity:
		return ExitDataIntegrity
	case CodeSourceMissing:
		return ExitSourceMissing
	case CodePersistence:
		return ExitPersistence
	default:
		return ExitUnknown
	}
}
