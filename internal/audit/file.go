package audit

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/Popolzen/shortly/internal/pool"
)

// FileObserver наблюдатель, пишущий в файл по событию на строку
type FileObserver struct {
	file    *os.File
	mu      sync.Mutex
	buffers *pool.Pool[*bytes.Buffer]
}

// NewFileObserver создаёт наблюдателя для записи в файл
func NewFileObserver(path string) (*FileObserver, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileObserver{
		file: file,
		buffers: pool.New(
			func() *bytes.Buffer { return &bytes.Buffer{} },
			func(b *bytes.Buffer) { b.Reset() },
		),
	}, nil
}

// Notify записывает событие в файл
func (f *FileObserver) Notify(event Event) {
	buf := f.buffers.Get()
	defer f.buffers.Put(buf)

	if err := json.NewEncoder(buf).Encode(event); err != nil {
		log.Printf("audit file: ошибка сериализации: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.file.Write(buf.Bytes()); err != nil {
		log.Printf("audit file: ошибка записи: %v", err)
	}
}

// Close закрывает файл
func (f *FileObserver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}
