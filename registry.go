package keywordsai

import "sync"

// SuccessFunc receives each batch of payloads the platform accepted.
type SuccessFunc func(batch []Payload)

// FailureFunc receives a batch together with the final error after retries
// were exhausted or the batch was terminally rejected.
type FailureFunc func(batch []Payload, err error)

// CallbackRegistry tracks delivery callbacks. The zero value is ready to
// use; all methods are safe for concurrent use. Callbacks run on dispatch
// worker goroutines in unspecified order.
type CallbackRegistry struct {
	mu        sync.Mutex
	nextID    int
	onSuccess map[int]SuccessFunc
	onFailure map[int]FailureFunc
}

// OnSuccess registers fn and returns a function that unregisters it.
// Unregistering twice is harmless.
func (r *CallbackRegistry) OnSuccess(fn SuccessFunc) (unregister func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onSuccess == nil {
		r.onSuccess = make(map[int]SuccessFunc)
	}
	id := r.nextID
	r.nextID++
	r.onSuccess[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.onSuccess, id)
	}
}

// OnFailure registers fn and returns a function that unregisters it.
func (r *CallbackRegistry) OnFailure(fn FailureFunc) (unregister func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onFailure == nil {
		r.onFailure = make(map[int]FailureFunc)
	}
	id := r.nextID
	r.nextID++
	r.onFailure[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.onFailure, id)
	}
}

// Len returns the number of registered callbacks of both kinds.
func (r *CallbackRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.onSuccess) + len(r.onFailure)
}

func (r *CallbackRegistry) successFuncs() []SuccessFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	fns := make([]SuccessFunc, 0, len(r.onSuccess))
	for _, fn := range r.onSuccess {
		fns = append(fns, fn)
	}
	return fns
}

func (r *CallbackRegistry) failureFuncs() []FailureFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	fns := make([]FailureFunc, 0, len(r.onFailure))
	for _, fn := range r.onFailure {
		fns = append(fns, fn)
	}
	return fns
}
