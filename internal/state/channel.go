package state

import "sync"

// Channel guarda o último valor conhecido de um domínio e o repassa aos observadores.
//
// Todo observador registrado recebe o valor corrente antes de Subscribe retornar
// e, em seguida, cada valor publicado, na ordem das publicações. Publicações
// feitas de dentro de um observador entram na fila e são entregues ao final da
// rodada corrente. Um mesmo observador nunca é chamado por duas goroutines ao
// mesmo tempo.
type Channel[T any] struct {
	name    string
	initial T

	mu         sync.Mutex
	current    T
	seq        uint64
	nextID     uint64
	observers  []*observer[T]
	pending    []delivery[T]
	delivering bool
}

// observer tem fila própria; running marca a goroutine que a está esvaziando.
type observer[T any] struct {
	id      uint64
	since   uint64
	fn      func(T)
	active  bool
	queue   []T
	running bool
}

type delivery[T any] struct {
	seq   uint64
	value T
}

// New cria um canal com o valor padrão declarado.
func New[T any](name string, initial T) *Channel[T] {
	return &Channel[T]{name: name, initial: initial, current: initial}
}

// Name devolve o nome do canal (usado em logs e no stream de estado).
func (c *Channel[T]) Name() string {
	return c.name
}

// Value devolve uma cópia rasa do valor corrente.
func (c *Channel[T]) Value() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Publish aplica update sobre o valor corrente e notifica os observadores.
// update recebe o valor atual e devolve o novo valor completo; campos não
// alterados por update são preservados.
func (c *Channel[T]) Publish(update func(T) T) {
	if update == nil {
		return
	}
	c.mu.Lock()
	c.current = update(c.current)
	c.seq++
	c.pending = append(c.pending, delivery[T]{seq: c.seq, value: c.current})
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	c.drainLocked()
}

// Set substitui o valor inteiro.
func (c *Channel[T]) Set(value T) {
	c.Publish(func(T) T { return value })
}

// Reset volta ao valor padrão declarado na criação.
func (c *Channel[T]) Reset() {
	c.Set(c.initial)
}

// Subscribe registra fn e a invoca com o valor corrente na goroutine de quem
// chama, antes de retornar, mesmo com outra entrega em andamento. Publicações
// que chegarem durante essa chamada ficam na fila do observador.
// A função devolvida cancela o registro e pode ser chamada mais de uma vez.
func (c *Channel[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	obs := &observer[T]{
		id:      c.nextID,
		since:   c.seq,
		fn:      fn,
		active:  true,
		queue:   []T{c.current},
		running: true,
	}
	c.observers = append(c.observers, obs)
	c.mu.Unlock()
	c.run(obs)

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(obs.id) })
	}
}

// Observers informa quantos observadores estão ativos.
func (c *Channel[T]) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

func (c *Channel[T]) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, obs := range c.observers {
		if obs.id == id {
			obs.active = false
			obs.queue = nil
			c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
			return
		}
	}
}

// drainLocked entrega a fila pendente; deve ser chamada com mu travado e
// devolve com mu liberado. Se um observador entrar em pânico, as publicações
// ainda não entregues ficam na fila para a próxima rodada.
func (c *Channel[T]) drainLocked() {
	defer func() {
		if rec := recover(); rec != nil {
			c.mu.Lock()
			c.delivering = false
			c.mu.Unlock()
			panic(rec)
		}
	}()
	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]
		targets := make([]*observer[T], 0, len(c.observers))
		for _, obs := range c.observers {
			if obs.since < next.seq {
				targets = append(targets, obs)
			}
		}
		c.mu.Unlock()

		for _, obs := range targets {
			c.deliver(obs, next.value)
		}

		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

// deliver põe value na fila de obs e a esvazia, a menos que outra goroutine
// já esteja fazendo isso.
func (c *Channel[T]) deliver(obs *observer[T], value T) {
	c.mu.Lock()
	if !obs.active {
		c.mu.Unlock()
		return
	}
	obs.queue = append(obs.queue, value)
	if obs.running {
		c.mu.Unlock()
		return
	}
	obs.running = true
	c.mu.Unlock()
	c.run(obs)
}

// run esvazia a fila de obs; quem chama já marcou obs.running. Um pânico do
// observador descarta apenas a fila dele.
func (c *Channel[T]) run(obs *observer[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			c.mu.Lock()
			obs.queue = nil
			obs.running = false
			c.mu.Unlock()
			panic(rec)
		}
	}()
	for {
		c.mu.Lock()
		if !obs.active || len(obs.queue) == 0 {
			obs.queue = nil
			obs.running = false
			c.mu.Unlock()
			return
		}
		value := obs.queue[0]
		obs.queue = obs.queue[1:]
		c.mu.Unlock()
		obs.fn(value)
	}
}
