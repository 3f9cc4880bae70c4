package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/example/ride-hail/internal/apperrors"
	"github.com/example/ride-hail/internal/models"
)

func openOrder(id string) models.Order {
	return models.Order{ID: id, RiderID: "r1", Status: models.StatusOpen}
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := NewOrderStore()
	s.Create(openOrder("o1"))
	a, err := s.Get("o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := s.Get("o1")
	if a != b {
		t.Fatalf("snapshots differ: %+v vs %+v", a, b)
	}
}

func TestGetUnknownIsNotFound(t *testing.T) {
	s := NewOrderStore()
	if _, err := s.Get("nope"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestTransitionSerializesPerOrder(t *testing.T) {
	s := NewOrderStore()
	s.Create(openOrder("o1"))

	const n = 50
	var wg sync.WaitGroup
	wins := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(driver string) {
			defer wg.Done()
			_, err := s.Transition("o1", func(o models.Order) (models.Order, error) {
				if o.Status != models.StatusOpen {
					return o, apperrors.ErrConflict
				}
				o.Status = models.StatusAssigned
				o.DriverID = driver
				return o, nil
			})
			if err == nil {
				wins <- driver
			}
		}(string(rune('a' + i%26)))
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(winners))
	}
	o, _ := s.Get("o1")
	if o.Status != models.StatusAssigned || o.DriverID != winners[0] {
		t.Fatalf("winner %q not reflected: %+v", winners[0], o)
	}
}

func TestListByStatusExcludesMovedOrders(t *testing.T) {
	s := NewOrderStore()
	s.Create(openOrder("o1"))
	s.Create(openOrder("o2"))
	_, err := s.Transition("o2", func(o models.Order) (models.Order, error) {
		o.Status = models.StatusAssigned
		return o, nil
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	open := s.ListByStatus(models.StatusOpen)
	if len(open) != 1 || open[0].ID != "o1" {
		t.Fatalf("expected only o1 open, got %+v", open)
	}
}

func TestListByStatusEmpty(t *testing.T) {
	s := NewOrderStore()
	if got := s.ListByStatus(models.StatusOpen); len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
}

func TestListDuringConcurrentTransitions(t *testing.T) {
	s := NewOrderStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Create(openOrder(id))
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range []string{"a", "b", "c", "d"} {
			_, _ = s.Transition(id, func(o models.Order) (models.Order, error) {
				o.Status = models.StatusAssigned
				return o, nil
			})
		}
	}()
	seen := make(chan []models.Order, 1)
	go func() {
		defer wg.Done()
		seen <- s.ListByStatus(models.StatusOpen)
	}()
	wg.Wait()
	for _, o := range <-seen {
		if o.Status != models.StatusOpen {
			t.Fatalf("listed order %s with status %s", o.ID, o.Status)
		}
	}
}
