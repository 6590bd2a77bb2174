package shortener

import (
	"context"
	"testing"

	"github.com/Popolzen/shortly/internal/service/allocator"
	"github.com/Popolzen/shortly/internal/store/memory"
)

// BenchmarkCreate измеряет создание ссылки вместе с аллокацией кода
func BenchmarkCreate(b *testing.B) {
	urls := memory.NewURLStore()
	svc := NewService(urls, allocator.New(urls))
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Create(ctx, "https://example.com/page", ""); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkResolve измеряет разрешение короткого кода
func BenchmarkResolve(b *testing.B) {
	urls := memory.NewURLStore()
	svc := NewService(urls, allocator.New(urls))
	ctx := context.Background()

	created, err := svc.Create(ctx, "https://example.com/page", "")
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Resolve(ctx, created.ShortCode); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRecordVisit измеряет инкремент счётчика переходов
func BenchmarkRecordVisit(b *testing.B) {
	urls := memory.NewURLStore()
	svc := NewService(urls, allocator.New(urls))
	ctx := context.Background()

	created, err := svc.Create(ctx, "https://example.com/page", "")
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.RecordVisit(ctx, created.ShortCode); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkGenerate измеряет генерацию случайного кода
func BenchmarkGenerate(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := allocator.Generate(); err != nil {
			b.Fatal(err)
		}
	}
}
