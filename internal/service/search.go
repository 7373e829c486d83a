package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/availability"
	"github.com/Freeeeeet/room_booking/internal/grouping"
	"github.com/Freeeeeet/room_booking/internal/metrics"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/ranking"
	"github.com/Freeeeeet/room_booking/internal/store"
)

type AvailableRoomsInput struct {
	Window model.Window
	// Groups holds attendee emails as the caller grouped them. Empty groups
	// are dropped.
	Groups    [][]string
	Equipment []model.Equipment
	Priority  []model.Priority
	RoomCount int
	// Regroup lets the grouping engine split attendees into RoomCount groups.
	Regroup bool
}

type AvailableRooms struct {
	IsMultiCity bool               `json:"is_multi_city"`
	Groups      []model.GroupRooms `json:"groups"`
}

// GetAvailableRooms proposes ranked rooms for every attendee group. Attendees
// spread over several cities are always regrouped one group per city.
func (s *BookingService) GetAvailableRooms(ctx context.Context, in AvailableRoomsInput) (result *AvailableRooms, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.OpAvailableRooms, outcome(err), started) }()

	w := in.Window.UTC()
	if err := validateMeeting(w, s.now()); err != nil {
		return nil, err
	}
	if err := ranking.ValidatePriority(in.Priority); err != nil {
		return nil, err
	}
	if err := ranking.ValidateEquipment(in.Equipment); err != nil {
		return nil, err
	}

	var requested [][]string
	for _, g := range in.Groups {
		if len(g) > 0 {
			requested = append(requested, g)
		}
	}
	emails := flatten(requested)
	if len(emails) == 0 {
		return nil, apperror.BadRequest("No attendees inputted")
	}
	if dup, ok := firstDuplicate(emails); ok {
		return nil, apperror.BadRequest(fmt.Sprintf("attendee %s is listed more than once", dup))
	}

	users, err := resolveEmails(ctx, s.store, emails)
	if err != nil {
		return nil, err
	}
	if err := availability.CheckUsers(ctx, s.store, store.UserFilter{Emails: emails}, w, nil); err != nil {
		return nil, translate(err)
	}

	cities := citiesOf(users)
	result = &AvailableRooms{IsMultiCity: len(cities) > 1}

	var groups [][]model.User
	switch {
	case result.IsMultiCity:
		if !in.Regroup || in.RoomCount != len(cities) {
			s.logger.Warn("Attendees span several cities, grouping by city",
				zap.Strings("cities", cities),
				zap.Int("requested_rooms", in.RoomCount),
				zap.Bool("requested_regroup", in.Regroup),
			)
		}
		for _, city := range cities {
			var group []model.User
			for _, u := range users {
				if u.CityID == city {
					group = append(group, u)
				}
			}
			groups = append(groups, group)
		}
	case in.Regroup:
		groups, err = s.regroup(ctx, users, in.RoomCount)
		if err != nil {
			return nil, err
		}
	default:
		if in.RoomCount != len(requested) {
			return nil, apperror.BadRequest("room count does not match the current attendee group structure, " +
				"please enable 'Auto-Regroup' to re-assign attendees to match the room count")
		}
		byEmail := make(map[string]model.User, len(users))
		for _, u := range users {
			byEmail[u.Email] = u
		}
		for _, g := range requested {
			group := make([]model.User, len(g))
			for i, email := range g {
				group[i] = byEmail[email]
			}
			groups = append(groups, group)
		}
	}

	result.Groups = make([]model.GroupRooms, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, group := range groups {
		eg.Go(func() error {
			found, err := s.searchRooms(egCtx, group, w, in.Equipment, in.Priority)
			if err != nil {
				return err
			}
			result.Groups[i] = *found
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, translate(err)
	}

	s.logger.Info("Rooms searched",
		zap.Time("start_time", w.Start),
		zap.Time("end_time", w.End),
		zap.Int("attendees", len(users)),
		zap.Int("groups", len(groups)),
		zap.Bool("multi_city", result.IsMultiCity),
		zap.String("priority", ranking.Describe(in.Priority)),
	)
	return result, nil
}

// regroup lets the grouping engine split users into k groups.
func (s *BookingService) regroup(ctx context.Context, users []model.User, k int) ([][]model.User, error) {
	table, err := s.distances.Distances(ctx, buildingsOf(users))
	if err != nil {
		return nil, translate(fmt.Errorf("load distances: %w", err))
	}
	split, err := grouping.Split(users, k, table)
	if err != nil {
		return nil, err
	}

	byEmail := make(map[string]model.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}
	groups := make([][]model.User, len(split))
	for i, g := range split {
		for _, email := range g.Members {
			groups[i] = append(groups[i], byEmail[email])
		}
	}
	return groups, nil
}

// searchRooms ranks every free active room of the group's city, measured
// from the building and floor where most of the group sits. group is never
// empty.
func (s *BookingService) searchRooms(
	ctx context.Context,
	group []model.User,
	w model.Window,
	equipment []model.Equipment,
	priority []model.Priority,
) (*model.GroupRooms, error) {
	table, err := s.distances.Distances(ctx, buildingsOf(group))
	if err != nil {
		return nil, fmt.Errorf("load distances: %w", err)
	}
	anchor := grouping.BuildClusters(group, table)[0]

	rooms, err := s.store.FindRooms(ctx, store.RoomFilter{
		CityID:     group[0].CityID,
		ActiveOnly: true,
		FreeDuring: &w,
	})
	if err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}

	ranked := ranking.Rank(rooms, ranking.Criteria{
		Anchor:    ranking.Anchor{BuildingID: anchor.BuildingID, Floor: anchor.Floor},
		GroupSize: len(group),
		Equipment: equipment,
		Priority:  priority,
	}, table)
	s.metrics.ObserveRankedRooms(len(ranked))

	attendees := make([]model.Attendee, len(group))
	for i := range group {
		attendees[i] = group[i].Attendee()
	}
	return &model.GroupRooms{Attendees: attendees, Rooms: ranked}, nil
}

// resolveEmails loads the users behind emails in the same order and fails on
// the first unknown email.
func resolveEmails(ctx context.Context, r store.Reader, emails []string) ([]model.User, error) {
	found, err := r.FindUsers(ctx, store.UserFilter{Emails: emails})
	if err != nil {
		return nil, translate(fmt.Errorf("find users: %w", err))
	}
	byEmail := make(map[string]model.User, len(found))
	for _, u := range found {
		byEmail[u.Email] = u
	}
	users := make([]model.User, len(emails))
	for i, email := range emails {
		u, ok := byEmail[email]
		if !ok {
			return nil, notFoundf("user %s does not exist", email)
		}
		users[i] = u
	}
	return users, nil
}

// citiesOf lists the users' cities in order of first appearance.
func citiesOf(users []model.User) []string {
	var cities []string
	seen := make(map[string]bool)
	for _, u := range users {
		if !seen[u.CityID] {
			seen[u.CityID] = true
			cities = append(cities, u.CityID)
		}
	}
	return cities
}

func buildingsOf(users []model.User) []int64 {
	var ids []int64
	for _, u := range users {
		if !containsID(ids, u.BuildingID) {
			ids = append(ids, u.BuildingID)
		}
	}
	return ids
}

func firstDuplicate(values []string) (string, bool) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v, true
		}
		seen[v] = true
	}
	return "", false
}
