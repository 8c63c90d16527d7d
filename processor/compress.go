package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/google/uuid"
)

// ArchiveExt - расширение сжатых копий исходных файлов
const ArchiveExt = ".sz"

// ErrSourceChanged - файл изменился между чтением и архивацией
var ErrSourceChanged = errors.New("исходный файл изменился во время запуска")

// FileDigests возвращает SHA-256 содержимого каждого файла
func FileDigests(files []string) (map[string]string, error) {
	digests := make(map[string]string, len(files))
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия файла %s: %w", path, err)
		}
		h := sha256.New()
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
		}
		digests[path] = hex.EncodeToString(h.Sum(nil))
	}
	return digests, nil
}

// ArchiveSources сохраняет сжатые копии файлов в <dir>/<runID>/. Копии
// создаются только для чтения, существующий снимок не перезаписывается.
// Если задан expected, содержимое каждой копии сверяется с дайджестом,
// снятым до чтения источников; при расхождении снимок удаляется.
func ArchiveSources(dir, runID string, files []string, expected map[string]string) ([]string, error) {
	if err := validateRunID(runID); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога архива %s: %w", dir, err)
	}
	target := filepath.Join(dir, runID)
	if err := os.Mkdir(target, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога архива %s: %w", target, err)
	}

	archived := make([]string, 0, len(files))
	for _, src := range files {
		dst := filepath.Join(target, filepath.Base(src)+ArchiveExt)
		digest, err := compressFile(src, dst)
		if err != nil {
			return archived, err
		}
		if want, ok := expected[src]; expected != nil && (!ok || want != digest) {
			os.RemoveAll(target)
			return nil, fmt.Errorf("%w: %s", ErrSourceChanged, src)
		}
		archived = append(archived, dst)
	}
	return archived, nil
}

func validateRunID(runID string) error {
	if _, err := uuid.Parse(runID); err != nil {
		return fmt.Errorf("некорректный идентификатор запуска %q: %w", runID, err)
	}
	return nil
}

// CompressFile записывает src в dst в формате snappy framing
func CompressFile(src, dst string) error {
	_, err := compressFile(src, dst)
	return err
}

// compressFile сжимает файл и возвращает SHA-256 прочитанного содержимого
func compressFile(src, dst string) (digest string, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("ошибка открытия файла %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		return "", fmt.Errorf("ошибка создания архива %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	h := sha256.New()
	w := snappy.NewBufferedWriter(out)
	if _, err := io.Copy(w, io.TeeReader(in, h)); err != nil {
		return "", fmt.Errorf("ошибка сжатия %s: %w", src, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ошибка сжатия %s: %w", src, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DecompressFile распаковывает архив path в w
func DecompressFile(path string, w io.Writer) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ошибка открытия архива %s: %w", path, err)
	}
	defer in.Close()

	if _, err := io.Copy(w, snappy.NewReader(in)); err != nil {
		return fmt.Errorf("ошибка распаковки %s: %w", path, err)
	}
	return nil
}

// RestoreSources распаковывает снимок запуска runID в каталог dest и
// возвращает пути восстановленных файлов
func RestoreSources(dir, runID, dest string) ([]string, error) {
	if err := validateRunID(runID); err != nil {
		return nil, err
	}
	snapshot := filepath.Join(dir, runID)
	entries, err := os.ReadDir(snapshot)
	if err != nil {
		return nil, fmt.Errorf("снимок запуска %s не найден: %w", runID, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога %s: %w", dest, err)
	}

	var restored []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ArchiveExt) {
			continue
		}
		target := filepath.Join(dest, strings.TrimSuffix(entry.Name(), ArchiveExt))
		if err := restoreFile(filepath.Join(snapshot, entry.Name()), target); err != nil {
			return restored, err
		}
		restored = append(restored, target)
	}
	if len(restored) == 0 {
		return nil, errors.New("снимок запуска " + runID + " пуст")
	}
	return restored, nil
}

func restoreFile(src, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("ошибка создания файла %s: %w", dst, err)
	}
	if err := DecompressFile(src, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
