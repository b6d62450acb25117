// Package analytics aggregates rents, properties, users and reviews into the
// platform and per-landlord reports.
package analytics

import (
	"sort"
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/user"
)

const (
	trendMonths  = 12
	monthLayout  = "2006-01"
	unknownLabel = "Unknown"
)

// Dataset is everything a report is computed from.
type Dataset struct {
	Rents      []*rent.Rent
	Properties []*property.Property
	Users      []*user.User
	Reviews    []*reviews.Review
	// TypeNames and CityNames resolve reference ids to display names.
	TypeNames map[reference.ID]string
	CityNames map[reference.ID]string
}

type Revenue struct {
	Total        int64 `json:"total"`
	ThisMonth    int64 `json:"this_month"`
	AveragePrice int64 `json:"average_price"`
}

type GroupRevenue struct {
	Name      string `json:"name"`
	Revenue   int64  `json:"revenue"`
	RentCount int    `json:"rent_count"`
}

type MonthRevenue struct {
	Month     string `json:"month"`
	Revenue   int64  `json:"revenue"`
	RentCount int    `json:"rent_count"`
}

type RentStats struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	Pending         int     `json:"pending"`
	Accepted        int     `json:"accepted"`
	Paid            int     `json:"paid"`
	Cancelled       int     `json:"cancelled"`
	Rejected        int     `json:"rejected"`
	Daily           int     `json:"daily"`
	Monthly         int     `json:"monthly"`
	AverageDuration float64 `json:"average_duration_days"`
	OccupancyRate   float64 `json:"occupancy_rate"`
}

type GroupCount struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Active int    `json:"active"`
}

type TypePrice struct {
	Name            string `json:"name"`
	AveragePerMonth int64  `json:"average_per_month"`
	AveragePerDay   *int64 `json:"average_per_day,omitempty"`
}

type PropertyStats struct {
	Total         int          `json:"total"`
	Active        int          `json:"active"`
	Inactive      int          `json:"inactive"`
	ByType        []GroupCount `json:"by_type"`
	ByCity        []GroupCount `json:"by_city"`
	AveragePrices []TypePrice  `json:"average_prices"`
}

type UserStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Landlords int `json:"landlords"`
	Tenants   int `json:"tenants"`
	Admins    int `json:"admins"`
}

type ReviewStats struct {
	Total         int     `json:"total"`
	AverageRating float64 `json:"average_rating"`
	// Histogram counts ratings 1 through 5.
	Histogram [5]int `json:"histogram"`
}

type Growth struct {
	Month string `json:"month"`
	New   int    `json:"new"`
	Total int    `json:"total"`
}

type Report struct {
	Currency       string         `json:"currency"`
	Revenue        Revenue        `json:"revenue"`
	RevenueByType  []GroupRevenue `json:"revenue_by_type"`
	RevenueByCity  []GroupRevenue `json:"revenue_by_city"`
	RevenueTrend   []MonthRevenue `json:"revenue_trend"`
	Rents          RentStats      `json:"rents"`
	Properties     PropertyStats  `json:"properties"`
	Users          *UserStats     `json:"users,omitempty"`
	Reviews        ReviewStats    `json:"reviews"`
	UserGrowth     []Growth       `json:"user_growth,omitempty"`
	PropertyGrowth []Growth       `json:"property_growth"`
	RentGrowth     []Growth       `json:"rent_growth"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// Platform computes the report over the whole dataset.
func Platform(ds Dataset, now time.Time) Report {
	report := compute(ds, now)
	users := userStats(ds.Users)
	report.Users = &users
	report.UserGrowth = growth(now, len(ds.Users), func(i int) time.Time { return ds.Users[i].CreatedAt })
	return report
}

// Landlord restricts the dataset to the landlord's properties and the rents
// and reviews on them. User metrics are omitted.
func Landlord(ds Dataset, landlordID user.ID, now time.Time) Report {
	owned := make(map[property.ID]struct{})
	scoped := Dataset{TypeNames: ds.TypeNames, CityNames: ds.CityNames}
	for _, p := range ds.Properties {
		if p.LandlordID == landlordID {
			owned[p.ID] = struct{}{}
			scoped.Properties = append(scoped.Properties, p)
		}
	}
	for _, r := range ds.Rents {
		if _, ok := owned[r.PropertyID]; ok {
			scoped.Rents = append(scoped.Rents, r)
		}
	}
	for _, rv := range ds.Reviews {
		if _, ok := owned[rv.PropertyID]; ok {
			scoped.Reviews = append(scoped.Reviews, rv)
		}
	}
	return compute(scoped, now)
}

func compute(ds Dataset, now time.Time) Report {
	now = now.UTC()
	props := make(map[property.ID]*property.Property, len(ds.Properties))
	for _, p := range ds.Properties {
		props[p.ID] = p
	}
	var paid []*rent.Rent
	for _, r := range ds.Rents {
		if r.Status == rent.StatusPaid {
			paid = append(paid, r)
		}
	}
	summary := reviews.Summarize(ds.Reviews)
	return Report{
		Currency:      "EUR",
		Revenue:       revenue(paid, now),
		RevenueByType: revenueBy(paid, func(r *rent.Rent) string { return ds.typeName(props[r.PropertyID]) }),
		RevenueByCity: revenueBy(paid, func(r *rent.Rent) string { return ds.cityName(props[r.PropertyID]) }),
		RevenueTrend:  revenueTrend(paid, now),
		Rents:         rentStats(ds.Rents, ds.Properties, now),
		Properties:    propertyStats(ds),
		Reviews: ReviewStats{
			Total:         summary.Count,
			AverageRating: summary.Average,
			Histogram:     summary.Histogram,
		},
		PropertyGrowth: growth(now, len(ds.Properties), func(i int) time.Time { return ds.Properties[i].CreatedAt }),
		RentGrowth:     growth(now, len(ds.Rents), func(i int) time.Time { return ds.Rents[i].CreatedAt }),
		GeneratedAt:    now,
	}
}

func revenue(paid []*rent.Rent, now time.Time) Revenue {
	var out Revenue
	for _, r := range paid {
		out.Total += r.Total.Amount
		if sameMonth(r.CreatedAt, now) {
			out.ThisMonth += r.Total.Amount
		}
	}
	if len(paid) > 0 {
		out.AveragePrice = out.Total / int64(len(paid))
	}
	return out
}

func revenueBy(paid []*rent.Rent, key func(*rent.Rent) string) []GroupRevenue {
	groups := make(map[string]*GroupRevenue)
	for _, r := range paid {
		name := key(r)
		g, ok := groups[name]
		if !ok {
			g = &GroupRevenue{Name: name}
			groups[name] = g
		}
		g.Revenue += r.Total.Amount
		g.RentCount++
	}
	out := make([]GroupRevenue, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue == out[j].Revenue {
			return out[i].Name < out[j].Name
		}
		return out[i].Revenue > out[j].Revenue
	})
	return out
}

func revenueTrend(paid []*rent.Rent, now time.Time) []MonthRevenue {
	months := lastMonths(now)
	out := make([]MonthRevenue, len(months))
	for i, m := range months {
		out[i].Month = m.Format(monthLayout)
		for _, r := range paid {
			if sameMonth(r.CreatedAt, m) {
				out[i].Revenue += r.Total.Amount
				out[i].RentCount++
			}
		}
	}
	return out
}

func rentStats(rents []*rent.Rent, props []*property.Property, now time.Time) RentStats {
	var out RentStats
	var endedDays float64
	ended := 0
	occupied := make(map[property.ID]struct{})
	for _, r := range rents {
		out.Total++
		if r.Active {
			out.Active++
		}
		switch r.Status {
		case rent.StatusPending:
			out.Pending++
		case rent.StatusAccepted:
			out.Accepted++
		case rent.StatusPaid:
			out.Paid++
		case rent.StatusCancelled:
			out.Cancelled++
		case rent.StatusRejected:
			out.Rejected++
		}
		if r.Daily {
			out.Daily++
		} else {
			out.Monthly++
		}
		if !r.Period.End.After(now) {
			endedDays += r.Period.Duration().Hours() / 24
			ended++
		}
		if r.Blocks() && r.Period.ContainsDate(now) {
			occupied[r.PropertyID] = struct{}{}
		}
	}
	if ended > 0 {
		out.AverageDuration = endedDays / float64(ended)
	}
	active := 0
	occupiedActive := 0
	for _, p := range props {
		if !p.Active {
			continue
		}
		active++
		if _, ok := occupied[p.ID]; ok {
			occupiedActive++
		}
	}
	if active > 0 {
		out.OccupancyRate = float64(occupiedActive) / float64(active) * 100
	}
	return out
}

func propertyStats(ds Dataset) PropertyStats {
	out := PropertyStats{Total: len(ds.Properties)}
	byType := make(map[string]*GroupCount)
	byCity := make(map[string]*GroupCount)
	type priceAcc struct {
		month, day   int64
		count, daily int64
	}
	prices := make(map[string]*priceAcc)
	for _, p := range ds.Properties {
		if p.Active {
			out.Active++
		} else {
			out.Inactive++
		}
		typeName := ds.typeName(p)
		countInto(byType, typeName, p.Active)
		countInto(byCity, ds.cityName(p), p.Active)
		acc, ok := prices[typeName]
		if !ok {
			acc = &priceAcc{}
			prices[typeName] = acc
		}
		acc.month += p.PricePerMonth.Amount
		acc.count++
		if p.PricePerDay.IsPositive() {
			acc.day += p.PricePerDay.Amount
			acc.daily++
		}
	}
	out.ByType = sortedCounts(byType)
	out.ByCity = sortedCounts(byCity)
	out.AveragePrices = make([]TypePrice, 0, len(prices))
	for name, acc := range prices {
		tp := TypePrice{Name: name, AveragePerMonth: acc.month / acc.count}
		if acc.daily > 0 {
			avg := acc.day / acc.daily
			tp.AveragePerDay = &avg
		}
		out.AveragePrices = append(out.AveragePrices, tp)
	}
	sort.Slice(out.AveragePrices, func(i, j int) bool { return out.AveragePrices[i].Name < out.AveragePrices[j].Name })
	return out
}

func userStats(users []*user.User) UserStats {
	out := UserStats{Total: len(users)}
	for _, u := range users {
		if u.Active {
			out.Active++
		}
		if u.HasRole(user.RoleAdministrator) {
			out.Admins++
		}
		if u.HasRole(user.RoleLandlord) {
			out.Landlords++
		}
		if u.HasRole(user.RoleTenant) {
			out.Tenants++
		}
	}
	return out
}

// growth reports, per month of the trend window, how many items were created
// that month and how many existed by its end.
func growth(now time.Time, n int, createdAt func(i int) time.Time) []Growth {
	months := lastMonths(now)
	out := make([]Growth, len(months))
	for m, start := range months {
		next := start.AddDate(0, 1, 0)
		out[m].Month = start.Format(monthLayout)
		for i := 0; i < n; i++ {
			at := createdAt(i)
			if at.Before(next) {
				out[m].Total++
				if !at.Before(start) {
					out[m].New++
				}
			}
		}
	}
	return out
}

// lastMonths returns the first instant of each of the last twelve months,
// oldest first, ending with the month of now.
func lastMonths(now time.Time) []time.Time {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, trendMonths)
	for i := 0; i < trendMonths; i++ {
		out[i] = current.AddDate(0, i-trendMonths+1, 0)
	}
	return out
}

func sameMonth(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func countInto(groups map[string]*GroupCount, name string, active bool) {
	g, ok := groups[name]
	if !ok {
		g = &GroupCount{Name: name}
		groups[name] = g
	}
	g.Count++
	if active {
		g.Active++
	}
}

func sortedCounts(groups map[string]*GroupCount) []GroupCount {
	out := make([]GroupCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Name < out[j].Name
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func (ds Dataset) typeName(p *property.Property) string {
	if p == nil {
		return unknownLabel
	}
	if name, ok := ds.TypeNames[p.PropertyTypeID]; ok {
		return name
	}
	return unknownLabel
}

func (ds Dataset) cityName(p *property.Property) string {
	if p == nil {
		return unknownLabel
	}
	if name, ok := ds.CityNames[p.CityID]; ok {
		return name
	}
	return unknownLabel
}
