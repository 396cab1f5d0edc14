package storage

import "errors"

var (
	ErrNotReady     = errors.New("хранилище не готово")
	ErrNotFound     = errors.New("палитра не найдена")
	ErrInvalidWorld = errors.New("недопустимое имя мира")
	ErrCorrupted    = errors.New("повреждённые данные палитры")
	ErrBadSnapshot  = errors.New("неверный формат снимка")
)
