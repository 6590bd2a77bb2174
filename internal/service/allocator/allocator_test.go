package allocator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Popolzen/shortly/internal/model"
	"github.com/Popolzen/shortly/internal/store/mocks"
)

func newFastAllocator(urls *mocks.MockURLStore) *Allocator {
	return &Allocator{
		urls:  urls,
		delay: time.Millisecond,
	}
}

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	for range 100 {
		code, err := Generate()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		for _, r := range code {
			assert.Contains(t, alphabet, string(r))
		}
	}
}

func TestGenerate_Distinct(t *testing.T) {
	// Два вызова подряд практически не могут совпасть
	first, err := Generate()
	require.NoError(t, err)
	second, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestAllocate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	urls := mocks.NewMockURLStore(ctrl)
	urls.EXPECT().PutIfAbsent(gomock.Any(), gomock.Any()).Return(nil)

	a := newFastAllocator(urls)
	created, err := a.Allocate(context.Background(), model.URL{OriginalURL: "https://example.com"})

	require.NoError(t, err)
	assert.Len(t, created.ShortCode, CodeLength)
	assert.Equal(t, "https://example.com", created.OriginalURL)
}

func TestAllocate_RetryOnCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	urls := mocks.NewMockURLStore(ctrl)

	// Первые 2 кандидата заняты, третий свободен
	var codes []string
	gomock.InOrder(
		urls.EXPECT().PutIfAbsent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u model.URL) error {
				codes = append(codes, u.ShortCode)
				return model.ErrKeyExists
			}),
		urls.EXPECT().PutIfAbsent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u model.URL) error {
				codes = append(codes, u.ShortCode)
				return model.ErrKeyExists
			}),
		urls.EXPECT().PutIfAbsent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u model.URL) error {
				codes = append(codes, u.ShortCode)
				return nil
			}),
	)

	a := newFastAllocator(urls)
	created, err := a.Allocate(context.Background(), model.URL{OriginalURL: "https://example.com"})

	require.NoError(t, err)
	require.Len(t, codes, 3)
	// Каждая попытка получает нового кандидата
	assert.NotEqual(t, codes[0], codes[1])
	assert.NotEqual(t, codes[1], codes[2])
	assert.Equal(t, codes[2], created.ShortCode)
}

func TestAllocate_Exhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	urls := mocks.NewMockURLStore(ctrl)
	// Хранилище всегда отвечает коллизией: ровно MaxAttempts кандидатов
	urls.EXPECT().PutIfAbsent(gomock.Any(), gomock.Any()).
		Return(model.ErrKeyExists).
		Times(MaxAttempts)

	a := newFastAllocator(urls)
	_, err := a.Allocate(context.Background(), model.URL{OriginalURL: "https://example.com"})

	assert.ErrorIs(t, err, model.ErrAllocationExhausted)
}

func TestAllocate_NoRetryOnStoreFault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	urls := mocks.NewMockURLStore(ctrl)
	// Любая ошибка кроме коллизии прерывает цикл с первой попытки
	urls.EXPECT().PutIfAbsent(gomock.Any(), gomock.Any()).
		Return(errors.New("store unavailable"))

	a := newFastAllocator(urls)
	_, err := a.Allocate(context.Background(), model.URL{OriginalURL: "https://example.com"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrAllocationExhausted)
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestAllocate_ContextCancelledDuringBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	urls := mocks.NewMockURLStore(ctrl)
	urls.EXPECT().PutIfAbsent(gomock.Any(), gomock.Any()).
		Return(model.ErrKeyExists).
		AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &Allocator{urls: urls, delay: time.Second}
	_, err := a.Allocate(ctx, model.URL{OriginalURL: "https://example.com"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_AlphabetCoverage(t *testing.T) {
	// На большом числе кодов встречаются и цифры, и оба регистра
	var all strings.Builder
	for range 200 {
		code, err := Generate()
		require.NoError(t, err)
		all.WriteString(code)
	}

	got := all.String()
	assert.True(t, strings.ContainsAny(got, "0123456789"))
	assert.True(t, strings.ContainsAny(got, "abcdefghijklmnopqrstuvwxyz"))
	assert.True(t, strings.ContainsAny(got, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
}
