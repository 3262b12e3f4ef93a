package endpoints

import (
	"github.com/stretchr/testify/mock"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/model"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

// MockSecretsStore implements store.SecretsStore for testing using testify/mock
type MockSecretsStore struct {
	mock.Mock
}

func NewMockSecretsStore() *MockSecretsStore {
	return &MockSecretsStore{}
}

func (m *MockSecretsStore) Get(p model.Path) ([]byte, error) {
	args := m.Called(p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSecretsStore) List(p model.Path) ([]string, error) {
	args := m.Called(p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSecretsStore) Create(p model.Path, value []byte) error {
	args := m.Called(p, value)
	return args.Error(0)
}

func (m *MockSecretsStore) CreateContainer(p model.Path) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockSecretsStore) Delete(p model.Path) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockSecretsStore) Usage() store.Usage {
	args := m.Called()
	return args.Get(0).(store.Usage)
}

// MockNamespaceStore implements store.NamespaceStore for testing using testify/mock
type MockNamespaceStore struct {
	mock.Mock
}

func NewMockNamespaceStore() *MockNamespaceStore {
	return &MockNamespaceStore{}
}

func (m *MockNamespaceStore) Namespace(uid uint32) (store.SecretsStore, error) {
	args := m.Called(uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(store.SecretsStore), args.Error(1)
}

func (m *MockNamespaceStore) Limits() store.Limits {
	args := m.Called()
	return args.Get(0).(store.Limits)
}

func (m *MockNamespaceStore) Usage() map[uint32]store.Usage {
	args := m.Called()
	return args.Get(0).(map[uint32]store.Usage)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func (m *MockHealthStore) CheckStorage() error {
	args := m.Called()
	return args.Error(0)
}
