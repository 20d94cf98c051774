package inventory

import (
	"context"
	"sync"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

var _ productRepo = &productRepoMock{}

type productRepoMock struct {
	GetForUpdateFunc func(ctx context.Context, id string) (*domain.Product, error)
	CreateFunc       func(ctx context.Context, p domain.Product) (string, error)
	UpdateFunc       func(ctx context.Context, id string, patch domain.ProductPatch) error
	DeleteFunc       func(ctx context.Context, id string) error

	calls struct {
		GetForUpdate []struct {
			Ctx context.Context
			ID  string
		}
		Create []struct {
			Ctx context.Context
			P   domain.Product
		}
		Update []struct {
			Ctx   context.Context
			ID    string
			Patch domain.ProductPatch
		}
		Delete []struct {
			Ctx context.Context
			ID  string
		}
	}
	lockGetForUpdate sync.RWMutex
	lockCreate       sync.RWMutex
	lockUpdate       sync.RWMutex
	lockDelete       sync.RWMutex
}

func (mock *productRepoMock) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	if mock.GetForUpdateFunc == nil {
		panic("productRepoMock.GetForUpdateFunc: method is nil but productRepo.GetForUpdate was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  string
	}{Ctx: ctx, ID: id}
	mock.lockGetForUpdate.Lock()
	mock.calls.GetForUpdate = append(mock.calls.GetForUpdate, callInfo)
	mock.lockGetForUpdate.Unlock()
	return mock.GetForUpdateFunc(ctx, id)
}

func (mock *productRepoMock) GetForUpdateCalls() []struct {
	Ctx context.Context
	ID  string
} {
	mock.lockGetForUpdate.RLock()
	calls := mock.calls.GetForUpdate
	mock.lockGetForUpdate.RUnlock()
	return calls
}

func (mock *productRepoMock) Create(ctx context.Context, p domain.Product) (string, error) {
	if mock.CreateFunc == nil {
		panic("productRepoMock.CreateFunc: method is nil but productRepo.Create was just called")
	}
	callInfo := struct {
		Ctx context.Context
		P   domain.Product
	}{Ctx: ctx, P: p}
	mock.lockCreate.Lock()
	mock.calls.Create = append(mock.calls.Create, callInfo)
	mock.lockCreate.Unlock()
	return mock.CreateFunc(ctx, p)
}

func (mock *productRepoMock) CreateCalls() []struct {
	Ctx context.Context
	P   domain.Product
} {
	mock.lockCreate.RLock()
	calls := mock.calls.Create
	mock.lockCreate.RUnlock()
	return calls
}

func (mock *productRepoMock) Update(ctx context.Context, id string, patch domain.ProductPatch) error {
	if mock.UpdateFunc == nil {
		panic("productRepoMock.UpdateFunc: method is nil but productRepo.Update was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		ID    string
		Patch domain.ProductPatch
	}{Ctx: ctx, ID: id, Patch: patch}
	mock.lockUpdate.Lock()
	mock.calls.Update = append(mock.calls.Update, callInfo)
	mock.lockUpdate.Unlock()
	return mock.UpdateFunc(ctx, id, patch)
}

func (mock *productRepoMock) UpdateCalls() []struct {
	Ctx   context.Context
	ID    string
	Patch domain.ProductPatch
} {
	mock.lockUpdate.RLock()
	calls := mock.calls.Update
	mock.lockUpdate.RUnlock()
	return calls
}

func (mock *productRepoMock) Delete(ctx context.Context, id string) error {
	if mock.DeleteFunc == nil {
		panic("productRepoMock.DeleteFunc: method is nil but productRepo.Delete was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  string
	}{Ctx: ctx, ID: id}
	mock.lockDelete.Lock()
	mock.calls.Delete = append(mock.calls.Delete, callInfo)
	mock.lockDelete.Unlock()
	return mock.DeleteFunc(ctx, id)
}

func (mock *productRepoMock) DeleteCalls() []struct {
	Ctx context.Context
	ID  string
} {
	mock.lockDelete.RLock()
	calls := mock.calls.Delete
	mock.lockDelete.RUnlock()
	return calls
}
