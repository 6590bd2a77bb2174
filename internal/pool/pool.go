package pool

import "sync"

// Pool переиспользует объекты между вызовами.
// Перед возвратом в пул объект сбрасывается переданной функцией,
// чтобы наружу никогда не попадало чужое состояние.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// New создает Pool с фабрикой новых объектов и функцией сброса
func New[T any](newFn func() T, resetFn func(T)) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return newFn()
			},
		},
		reset: resetFn,
	}
}

// Get возвращает объект из пула
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put сбрасывает объект и возвращает его в пул
func (p *Pool[T]) Put(x T) {
	if p.reset != nil {
		p.reset(x)
	}
	p.pool.Put(x)
}
