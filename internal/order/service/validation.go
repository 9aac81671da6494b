package service

import (
	"fmt"
	"sort"
	"strings"

	"mostrador/internal/domain"
	"mostrador/internal/dto"
	apperrors "mostrador/internal/errors"
)

const (
	maxItemsPerOrder = 100
	maxItemQuantity  = 10000
)

func validateCustomerName(name string) []apperrors.ValidationDetail {
	if strings.TrimSpace(name) == "" {
		return []apperrors.ValidationDetail{{Field: "customerName", Message: "customerName must not be empty"}}
	}
	return nil
}

func validateItems(items []dto.OrderItemInput) []apperrors.ValidationDetail {
	if len(items) == 0 {
		return []apperrors.ValidationDetail{{Field: "items", Message: "items must not be empty"}}
	}

	var details []apperrors.ValidationDetail
	if len(items) > maxItemsPerOrder {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: fmt.Sprintf("items exceeds maximum of %d", maxItemsPerOrder),
		})
	}

	seen := make(map[int]bool, len(items))
	for idx, item := range items {
		prefix := fmt.Sprintf("items[%d]", idx)

		if item.ProductID <= 0 {
			details = append(details, apperrors.ValidationDetail{
				Field:   prefix + ".productId",
				Message: "productId must be a positive integer",
			})
		} else if seen[item.ProductID] {
			details = append(details, apperrors.ValidationDetail{
				Field:   prefix + ".productId",
				Message: "productId must not be duplicated",
			})
		}
		seen[item.ProductID] = true

		if item.Quantity < 1 || item.Quantity > maxItemQuantity {
			details = append(details, apperrors.ValidationDetail{
				Field:   prefix + ".quantity",
				Message: fmt.Sprintf("quantity must be between 1 and %d", maxItemQuantity),
			})
		}

		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			details = append(details, apperrors.ValidationDetail{
				Field:   prefix + ".unitPrice",
				Message: "unitPrice must be non-negative",
			})
		}
	}

	return details
}

func validatePatches(patches []dto.QuantityPatch) []apperrors.ValidationDetail {
	if len(patches) == 0 {
		return []apperrors.ValidationDetail{{Field: "items", Message: "items must not be empty"}}
	}

	var details []apperrors.ValidationDetail
	seen := make(map[uint]bool, len(patches))
	for idx, patch := range patches {
		prefix := fmt.Sprintf("items[%d]", idx)

		if patch.ItemID == 0 {
			details = append(details, apperrors.ValidationDetail{Field: prefix + ".itemId", Message: "itemId must be a positive integer"})
		} else if seen[patch.ItemID] {
			details = append(details, apperrors.ValidationDetail{Field: prefix + ".itemId", Message: "itemId must not be duplicated"})
		}
		seen[patch.ItemID] = true

		if patch.Quantity < 1 || patch.Quantity > maxItemQuantity {
			details = append(details, apperrors.ValidationDetail{
				Field:   prefix + ".quantity",
				Message: fmt.Sprintf("quantity must be between 1 and %d", maxItemQuantity),
			})
		}
	}

	return details
}

// sortedItems returns a copy ordered by product id so row locks are always taken in the same order.
func sortedItems(items []dto.OrderItemInput) []dto.OrderItemInput {
	sorted := make([]dto.OrderItemInput, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	return sorted
}

func productIDs(items []dto.OrderItemInput) []int {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	return ids
}

// demandByProduct sums line quantities per product, ascending by product id.
func demandByProduct(items []domain.OrderItem) ([]int, map[int]int) {
	demand := make(map[int]int, len(items))
	for _, item := range items {
		demand[item.ProductID] += item.Quantity
	}

	ids := make([]int, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids, demand
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
