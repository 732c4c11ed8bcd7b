package storage

import "context"

// NoopStorage forgets everything.
type NoopStorage struct {
}

func (s *NoopStorage) Open(ctx context.Context) error {
	return nil
}

func (s *NoopStorage) Close(ctx context.Context) error {
	return nil
}

func (s *NoopStorage) Put(ctx context.Context, img *Image) error {
	return nil
}

func (s *NoopStorage) Get(ctx context.Context, name string) (*Image, error) {
	return nil, NotFound
}

func (s *NoopStorage) Rem(ctx context.Context, name string) error {
	return nil
}

func (s *NoopStorage) List(ctx context.Context) ([]string, error) {
	return nil, nil
}
