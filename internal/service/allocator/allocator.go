// Package allocator отвечает за выдачу уникальных коротких кодов.
// Код всегда случайный и никак не зависит от содержимого ссылки:
// одинаковые ссылки получают разные коды.
package allocator

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/Popolzen/shortly/internal/model"
	"github.com/Popolzen/shortly/internal/store"
)

const (
	// CodeLength длина короткого кода
	CodeLength = 7
	// MaxAttempts предел попыток при коллизиях
	MaxAttempts = 10

	alphabet   = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	retryDelay = 50 * time.Millisecond
)

// Allocator выдает короткие коды через условную вставку в хранилище
type Allocator struct {
	urls  store.URLStore
	delay time.Duration
}

// New создает аллокатор поверх хранилища ссылок
func New(urls store.URLStore) *Allocator {
	return &Allocator{
		urls:  urls,
		delay: retryDelay,
	}
}

// Generate возвращает случайный код из 7 символов алфавита base62.
// Байты криптографического генератора старше 247 отбрасываются,
// чтобы распределение символов оставалось равномерным.
func Generate() (string, error) {
	const limit = byte(len(alphabet) * 4) // 248, наибольшее кратное 62 в байте

	code := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength)
	for len(code) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("не удалось получить случайные байты: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, alphabet[int(b)%len(alphabet)])
			if len(code) == CodeLength {
				break
			}
		}
	}
	return string(code), nil
}

// Allocate подбирает свободный код и сохраняет запись.
// Повторяет попытку только на коллизии ключа, любая другая ошибка
// хранилища прерывает цикл сразу.
func (a *Allocator) Allocate(ctx context.Context, url model.URL) (model.URL, error) {
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		code, err := Generate()
		if err != nil {
			return model.URL{}, err
		}
		url.ShortCode = code

		err = a.urls.PutIfAbsent(ctx, url)
		if err == nil {
			return url, nil
		}
		if !errors.Is(err, model.ErrKeyExists) {
			return model.URL{}, fmt.Errorf("не удалось сохранить URL: %w", err)
		}

		if attempt == MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return model.URL{}, ctx.Err()
		case <-time.After(a.delay * time.Duration(attempt)):
		}
	}

	return model.URL{}, model.ErrAllocationExhausted
}
