package store

import "parley/pkg/models"

// Threads adapts the package-level store functions to the dispatcher's
// Persistence boundary.
type Threads struct{}

func (Threads) LoadThread(id string) (models.ThreadSnapshot, error) {
	return LoadThread(id)
}

func (Threads) AppendMessage(threadID string, msg models.Message) (string, error) {
	return AppendMessage(threadID, msg)
}

func (Threads) MarkRead(threadID, recipient string) error {
	return MarkRead(threadID, recipient)
}

func (Threads) DeleteThread(id string) error {
	return DeleteThread(id)
}
