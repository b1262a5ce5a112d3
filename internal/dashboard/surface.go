package dashboard

import "github.com/geosight/dashboard/internal/domain/entities"

// Surface is where a Coordinator renders. Implementations must not block:
// the coordinator calls them while holding its own lock.
type Surface interface {
	SetState(state entities.DashboardState)
	SetLoading(loading bool)

	// Reset clears everything rendered for the previous search
	Reset(query string, intent entities.Intent)

	AddMarker(marker entities.Marker)
	SetHighlights(placeIDs []string)
	FitBounds(bounds entities.Bounds)

	// ClearRoute removes directions, flight paths, route stats and route stop markers
	ClearRoute()
	DrawDirections(directions *entities.Directions)
	DrawFlightPath(path entities.FlightPath)
	ShowRouteStats(stats entities.RouteStats)
	ShowModeSelector(active entities.TravelMode)

	RenderCards(cards []entities.Card)
	Notify(level entities.NoticeLevel, message string)
}
