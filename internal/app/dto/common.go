package dto

import (
	"erent/internal/domain/shared/money"
	"erent/internal/domain/shared/paging"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

// Page is the paged collection envelope. TotalCount is present only when
// the caller asked for it.
type Page[T any] struct {
	Items      []T  `json:"items"`
	TotalCount *int `json:"total_count,omitempty"`
}

func MapPage[S any, T any](page paging.Page[S], fn func(S) T) Page[T] {
	out := Page[T]{Items: make([]T, 0, len(page.Items)), TotalCount: page.TotalCount}
	for _, item := range page.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}

// Count wraps a single counter result.
type Count struct {
	Count int `json:"count"`
}
