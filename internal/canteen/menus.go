package canteen

import (
	"context"
	"fmt"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
)

// menuDateLayout is the calendar-date document id of a daily menu.
const menuDateLayout = "2006-01-02"

// MenuForDate returns the menu published for a calendar date id.
func (s *Service) MenuForDate(dateID string) (domain.DailyMenu, bool) {
	return s.State.MenuByID(dateID)
}

// UpsertMenu publishes or replaces the menu for one calendar date. The
// stored timestamp is pinned to noon UTC of the date id.
func (s *Service) UpsertMenu(ctx context.Context, dateID, breakfastMenu, lunchDinnerMenu string) Result {
	day, err := time.ParseInLocation(menuDateLayout, dateID, time.UTC)
	if err != nil {
		return failure(fmt.Sprintf("Invalid menu date %s. Use the YYYY-MM-DD format.", dateID))
	}

	s.State.UpsertMenu(domain.DailyMenu{
		ID:              dateID,
		BreakfastMenu:   breakfastMenu,
		LunchDinnerMenu: lunchDinnerMenu,
		Date:            day.Add(12 * time.Hour),
	})
	s.syncMenus(ctx)

	return success(fmt.Sprintf("Menu for %s has been saved successfully.", dateID))
}
