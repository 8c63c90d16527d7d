package extractors

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/normalize"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrEmptyFile     = errors.New("файл пуст")
	ErrMissingColumn = errors.New("столбец не найден")
	ErrNoSheets      = errors.New("в книге нет листов")
)

// Table - содержимое табличного файла: заголовок и строки данных
type Table struct {
	Source  string
	Headers []string
	Rows    []TableRow
	index   map[string]int
}

// TableRow - строка данных с номером (1 - первая строка после заголовка)
type TableRow struct {
	Number int
	Cells  []string
}

// Column возвращает индекс столбца по имени. Сравнение без учета регистра
// выполняется, только если точного совпадения нет.
func (t *Table) Column(name string) (int, error) {
	if i, ok := t.index[name]; ok {
		return i, nil
	}
	for i, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return i, nil
		}
	}
	return 0, &etlerr.ParseError{Source: t.Source, Field: name, Err: ErrMissingColumn}
}

// Columns разрешает несколько столбцов сразу
func (t *Table) Columns(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		idx[i] = c
	}
	return idx, nil
}

// Cell возвращает значение ячейки; отсутствующие ячейки короткой строки пусты
func (r TableRow) Cell(col int) string {
	if col < 0 || col >= len(r.Cells) {
		return ""
	}
	return r.Cells[col]
}

// TableReader читает CSV и XLSX файлы источников
type TableReader struct {
	encoding encoding.Encoding
}

// NewTableReader создает читателя для заданной кодировки CSV
func NewTableReader(encodingName string) (*TableReader, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(encodingName)) {
	case "", "utf-8", "utf8":
		enc = unicode.UTF8BOM
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	case "iso-8859-1", "latin1":
		enc = charmap.ISO8859_1
	default:
		return nil, fmt.Errorf("неподдерживаемая кодировка %q", encodingName)
	}
	return &TableReader{encoding: enc}, nil
}

// ReadTable читает файл целиком. Формат определяется по расширению.
func (r *TableReader) ReadTable(ctx context.Context, path string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		records [][]string
		lines   []int
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, lines, err = readXLSX(path)
	default:
		records, lines, err = r.readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	return newTable(filepath.Base(path), records, lines)
}

func (r *TableReader) readCSV(path string) ([][]string, []int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, openError(path, err)
	}
	defer file.Close()

	decoded := transform.NewReader(bufio.NewReader(file), r.encoding.NewDecoder())
	csvReader := csv.NewReader(decoded)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true

	var (
		records [][]string
		lines   []int
	)
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &etlerr.ParseError{Source: filepath.Base(path), Err: err}
		}
		// csv пропускает пустые строки, поэтому номер берется из позиции поля
		line, _ := csvReader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	return records, lines, nil
}

func readXLSX(path string) ([][]string, []int, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, openError(path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, &etlerr.ParseError{Source: filepath.Base(path), Err: err}
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, &etlerr.ParseError{Source: filepath.Base(path), Err: ErrNoSheets}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, &etlerr.ParseError{Source: filepath.Base(path), Err: err}
	}
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return rows, lines, nil
}

func openError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return &etlerr.SourceNotFoundError{Source: filepath.Base(path), Path: path, Err: err}
	}
	return fmt.Errorf("ошибка открытия файла %s: %w", path, err)
}

// newTable отделяет заголовок от данных и пропускает полностью пустые
// строки. lines[i] - физический номер строки records[i] в файле, номера
// строк данных отсчитываются от заголовка.
func newTable(source string, records [][]string, lines []int) (*Table, error) {
	if len(records) == 0 {
		return nil, &etlerr.ParseError{Source: source, Err: ErrEmptyFile}
	}

	headers := make([]string, len(records[0]))
	index := make(map[string]int, len(headers))
	for i, h := range records[0] {
		headers[i] = normalize.Header(h)
		if _, dup := index[headers[i]]; !dup && headers[i] != "" {
			index[headers[i]] = i
		}
	}

	table := &Table{Source: source, Headers: headers, index: index}
	for i, record := range records[1:] {
		if isRowEmpty(record) {
			continue
		}
		table.Rows = append(table.Rows, TableRow{Number: lines[i+1] - lines[0], Cells: record})
	}
	return table, nil
}

func isRowEmpty(record []string) bool {
	for _, cell := range record {
		if normalize.Text(cell) != "" {
			return false
		}
	}
	return true
}

// fileExists проверяет наличие обычного файла
func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
