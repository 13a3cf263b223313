package dialog

import "sync"

// Store — потокобезопасное хранилище сессий по идентификатору чата.
// Мьютекс удерживается на время всего перехода, поэтому для одного
// пользователя в обработке находится не более одного перехода.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
	}
}

// Update выполняет fn над сессией пользователя под блокировкой.
// Сессия создаётся при первом обращении.
func (st *Store) Update(chatID int64, fn func(*Session) Reply) Reply {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[chatID]
	if !ok {
		s = &Session{}
		st.sessions[chatID] = s
	}
	return fn(s)
}

// Delete уничтожает сессию (завершение или отмена анкеты)
func (st *Store) Delete(chatID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, chatID)
}

// Snapshot возвращает копию сессии для чтения без удержания блокировки
func (st *Store) Snapshot(chatID int64) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}
