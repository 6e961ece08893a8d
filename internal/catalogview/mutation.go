package catalogview

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/validation"
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type access int

const (
	selfService access = iota
	privileged
)

// plan is one optimistic mutation. Every func except send runs with the
// view lock held.
type plan[T any] struct {
	keys   []string // entries held busy until the store answers
	idle   []string // entries that must not be busy, but are not held
	apply  func()
	revert func()
	send   func(ctx context.Context) (T, error)
	commit func(T)

	// affectsProgress invalidates the server aggregate on apply and
	// refetches it after a successful commit.
	affectsProgress bool
}

// runMutation is the single path every change takes: permission, then
// prepare (validation and lookups), then the busy guard, then the optimistic
// apply. On failure the inverse patch is applied and a Notice is emitted.
func runMutation[T any](ctx context.Context, v *View, op string, level access, prepare func() (*plan[T], error)) (T, error) {
	var zero T

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return zero, ErrViewClosed
	}
	allowed := v.actor.Authenticated()
	if level == privileged {
		allowed = allowed && v.actor.CanManageChallenges()
	}
	if !allowed {
		v.mu.Unlock()
		v.notifier.Notify(noticeFor(op, ErrPermissionDenied))
		return zero, ErrPermissionDenied
	}

	p, err := prepare()
	if err != nil {
		v.mu.Unlock()
		return zero, err
	}
	if v.anyBusy(p.keys) || v.anyBusy(p.idle) {
		v.mu.Unlock()
		return zero, ErrMutationInProgress
	}
	for _, key := range p.keys {
		v.updating[key] = struct{}{}
	}
	p.apply()
	if p.affectsProgress {
		v.beginProgressChange()
	}
	v.mu.Unlock()

	res, err := p.send(ctx)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		log.Printf("INFO: %s answered after the view was closed, response discarded", op)
		return zero, ErrViewClosed
	}
	for _, key := range p.keys {
		delete(v.updating, key)
	}
	if err != nil {
		err = classify(err)
		p.revert()
		refetch, gen := false, uint64(0)
		if p.affectsProgress {
			refetch, gen = v.endProgressChange(false)
		}
		v.mu.Unlock()
		v.notifier.Notify(noticeFor(op, err))
		if refetch {
			v.refreshProgress(ctx, gen)
		}
		return zero, err
	}
	if p.commit != nil {
		p.commit(res)
	}
	refetch, gen := false, uint64(0)
	if p.affectsProgress {
		refetch, gen = v.endProgressChange(true)
	}
	v.mu.Unlock()

	if refetch {
		v.refreshProgress(ctx, gen)
	}
	return res, nil
}

// beginProgressChange withholds the server aggregate for a mutation that
// changes completion counts. Callers hold v.mu.
func (v *View) beginProgressChange() {
	if v.progressPending == 0 {
		v.settled = v.summary
		v.settledValid = true
	}
	v.progressPending++
	v.progressGen++
	v.summary = nil
}

// endProgressChange settles one progress-affecting mutation. When it was the
// last one pending, the aggregate is either restored (all of them failed) or
// must be refetched, in which case the generation to refetch for is returned.
// Callers hold v.mu.
func (v *View) endProgressChange(committed bool) (bool, uint64) {
	v.progressPending--
	v.progressGen++
	if committed {
		v.settledValid = false
	}
	if v.progressPending > 0 {
		return false, 0
	}
	settled, valid := v.settled, v.settledValid
	v.settled = nil
	if valid {
		v.summary = settled
		return false, 0
	}
	return true, v.progressGen
}

// refreshProgress refetches the server aggregate. The answer is installed only
// if nothing changed progress since gen; on failure the view keeps computing
// progress locally.
func (v *View) refreshProgress(ctx context.Context, gen uint64) {
	summary, err := v.store.FetchProgress(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.progressPending > 0 || v.progressGen != gen {
		return
	}
	if err != nil {
		log.Printf("WARN: progress refetch failed, computing locally: %v", err)
		v.summary = nil
		return
	}
	v.summary = summary
}

// === Weeks ===

func (v *View) CreateWeek(ctx context.Context, input domain.WeekInput) (*domain.WeekWithItems, error) {
	input = input.Normalize()
	tempID := primitive.NewObjectID()

	return runMutation(ctx, v, "create_week", privileged, func() (*plan[*domain.WeekWithItems], error) {
		if err := validation.Struct(input); err != nil {
			return nil, err
		}
		if v.weekNumberTaken(input.WeekNumber, primitive.NilObjectID) {
			return nil, validation.NewError("weekNumber", "a week with this number already exists")
		}
		return &plan[*domain.WeekWithItems]{
			keys: []string{weekKey(tempID), weekNumberKey(input.WeekNumber)},
			apply: func() {
				v.weeks = append(v.weeks, domain.WeekWithItems{
					Week: domain.Week{
						ID:         tempID,
						WeekNumber: input.WeekNumber,
						Theme:      input.Theme,
						StartDate:  input.StartDate,
						EndDate:    input.EndDate,
						CreatedBy:  v.actor.UserID,
					},
					Items: []domain.ChallengeItem{},
				})
				v.sortWeeks()
			},
			revert: func() { v.removeWeek(tempID) },
			send: func(ctx context.Context) (*domain.WeekWithItems, error) {
				return v.store.CreateWeek(ctx, input)
			},
			commit: func(created *domain.WeekWithItems) {
				i := v.weekIndex(tempID)
				if i < 0 || created == nil {
					return
				}
				saved := created.Clone()
				if saved.Items == nil {
					saved.Items = []domain.ChallengeItem{}
				}
				v.weeks[i] = saved
				v.sortWeeks()
			},
		}, nil
	})
}

func (v *View) UpdateWeek(ctx context.Context, weekID primitive.ObjectID, patch domain.WeekPatch) (*domain.Week, error) {
	return runMutation(ctx, v, "update_week", privileged, func() (*plan[*domain.Week], error) {
		i := v.weekIndex(weekID)
		if i < 0 {
			return nil, ErrUnknownEntity
		}
		before := v.weeks[i].Week
		merged := patch.Apply(before)
		if err := validation.Struct(merged); err != nil {
			return nil, err
		}
		if merged.WeekNumber != before.WeekNumber && v.weekNumberTaken(merged.WeekNumber, weekID) {
			return nil, validation.NewError("weekNumber", "a week with this number already exists")
		}
		keys := []string{weekKey(weekID), weekNumberKey(before.WeekNumber)}
		if merged.WeekNumber != before.WeekNumber {
			keys = append(keys, weekNumberKey(merged.WeekNumber))
		}
		return &plan[*domain.Week]{
			keys: keys,
			apply: func() {
				v.setWeek(weekID, func(w *domain.Week) {
					w.WeekNumber = merged.WeekNumber
					w.Theme = merged.Theme
					w.StartDate = merged.StartDate
					w.EndDate = merged.EndDate
				})
			},
			revert: func() {
				v.setWeek(weekID, func(w *domain.Week) { *w = before })
			},
			send: func(ctx context.Context) (*domain.Week, error) {
				return v.store.UpdateWeek(ctx, weekID, patch)
			},
			commit: func(saved *domain.Week) {
				if saved != nil {
					v.setWeek(weekID, func(w *domain.Week) { *w = *saved })
				}
			},
		}, nil
	})
}

// DeleteWeek removes the week and its items from the view in one step and
// holds all of them, and the week number, busy until the store answers.
func (v *View) DeleteWeek(ctx context.Context, weekID primitive.ObjectID) error {
	_, err := runMutation(ctx, v, "delete_week", privileged, func() (*plan[struct{}], error) {
		i := v.weekIndex(weekID)
		if i < 0 {
			return nil, ErrUnknownEntity
		}
		removed := v.weeks[i].Clone()
		keys := make([]string, 0, len(removed.Items)+2)
		keys = append(keys, weekKey(weekID), weekNumberKey(removed.WeekNumber))
		for _, item := range removed.Items {
			keys = append(keys, itemKey(item.ID))
		}
		return &plan[struct{}]{
			keys:  keys,
			apply: func() { v.removeWeek(weekID) },
			revert: func() {
				v.weeks = append(v.weeks, removed.Clone())
				v.sortWeeks()
			},
			send: func(ctx context.Context) (struct{}, error) {
				return struct{}{}, v.store.DeleteWeek(ctx, weekID)
			},
			affectsProgress: true,
		}, nil
	})
	return err
}

// === Items ===

func (v *View) CreateItem(ctx context.Context, weekID primitive.ObjectID, input domain.ItemInput) (*domain.ChallengeItem, error) {
	input = input.Normalize()
	tempID := primitive.NewObjectID()

	return runMutation(ctx, v, "create_item", privileged, func() (*plan[*domain.ChallengeItem], error) {
		i := v.weekIndex(weekID)
		if i < 0 {
			return nil, ErrUnknownEntity
		}
		if err := validation.Struct(input); err != nil {
			return nil, err
		}
		sequence := 1
		for _, item := range v.weeks[i].Items {
			if item.Sequence >= sequence {
				sequence = item.Sequence + 1
			}
		}
		pending := domain.ChallengeItem{
			ID:          tempID,
			WeekID:      weekID,
			Title:       input.Title,
			Description: input.Description,
			Sequence:    sequence,
		}
		return &plan[*domain.ChallengeItem]{
			keys: []string{itemKey(tempID)},
			// A week still being created has no server id yet
			idle: []string{weekKey(weekID)},
			apply: func() {
				if i := v.weekIndex(weekID); i >= 0 {
					v.weeks[i].Items = append(v.weeks[i].Items, pending)
				}
			},
			revert: func() { v.removeItem(weekID, tempID) },
			send: func(ctx context.Context) (*domain.ChallengeItem, error) {
				return v.store.CreateItem(ctx, weekID, input)
			},
			commit: func(created *domain.ChallengeItem) {
				if created != nil {
					v.setItem(weekID, tempID, func(item *domain.ChallengeItem) { *item = *created })
				}
			},
			affectsProgress: true,
		}, nil
	})
}

func (v *View) UpdateItem(ctx context.Context, weekID, itemID primitive.ObjectID, patch domain.ItemPatch) (*domain.ChallengeItem, error) {
	return runMutation(ctx, v, "update_item", privileged, func() (*plan[*domain.ChallengeItem], error) {
		i, j, ok := v.findItem(weekID, itemID)
		if !ok {
			return nil, ErrUnknownEntity
		}
		before := v.weeks[i].Items[j]
		merged := patch.Apply(before)
		if err := validation.Struct(merged); err != nil {
			return nil, err
		}
		return &plan[*domain.ChallengeItem]{
			keys: []string{itemKey(itemID)},
			apply: func() {
				v.setItem(weekID, itemID, func(item *domain.ChallengeItem) {
					item.Title = merged.Title
					item.Description = merged.Description
				})
			},
			revert: func() {
				v.setItem(weekID, itemID, func(item *domain.ChallengeItem) { *item = before })
			},
			send: func(ctx context.Context) (*domain.ChallengeItem, error) {
				return v.store.UpdateItem(ctx, weekID, itemID, patch)
			},
			commit: func(saved *domain.ChallengeItem) {
				if saved != nil {
					v.setItem(weekID, itemID, func(item *domain.ChallengeItem) { *item = *saved })
				}
			},
		}, nil
	})
}

func (v *View) DeleteItem(ctx context.Context, weekID, itemID primitive.ObjectID) error {
	_, err := runMutation(ctx, v, "delete_item", privileged, func() (*plan[struct{}], error) {
		i, j, ok := v.findItem(weekID, itemID)
		if !ok {
			return nil, ErrUnknownEntity
		}
		removed := v.weeks[i].Items[j]
		return &plan[struct{}]{
			keys:   []string{itemKey(itemID)},
			apply:  func() { v.removeItem(weekID, itemID) },
			revert: func() { v.insertItem(weekID, j, removed) },
			send: func(ctx context.Context) (struct{}, error) {
				return struct{}{}, v.store.DeleteItem(ctx, weekID, itemID)
			},
			affectsProgress: true,
		}, nil
	})
	return err
}

// SetCompletion marks the item completed or not for the acting user. Any
// authenticated user may do this.
func (v *View) SetCompletion(ctx context.Context, weekID, itemID primitive.ObjectID, completed bool) (*domain.ChallengeItem, error) {
	return v.setCompletion(ctx, weekID, itemID, func(bool) bool { return completed })
}

// ToggleCompletion flips the item's current completion state.
func (v *View) ToggleCompletion(ctx context.Context, weekID, itemID primitive.ObjectID) (*domain.ChallengeItem, error) {
	return v.setCompletion(ctx, weekID, itemID, func(current bool) bool { return !current })
}

func (v *View) setCompletion(ctx context.Context, weekID, itemID primitive.ObjectID, target func(current bool) bool) (*domain.ChallengeItem, error) {
	return runMutation(ctx, v, "set_completion", selfService, func() (*plan[*domain.ChallengeItem], error) {
		i, j, ok := v.findItem(weekID, itemID)
		if !ok {
			return nil, ErrUnknownEntity
		}
		before := v.weeks[i].Items[j].Completed
		completed := target(before)
		return &plan[*domain.ChallengeItem]{
			keys: []string{itemKey(itemID)},
			apply: func() {
				v.setItem(weekID, itemID, func(item *domain.ChallengeItem) { item.Completed = completed })
			},
			revert: func() {
				v.setItem(weekID, itemID, func(item *domain.ChallengeItem) { item.Completed = before })
			},
			send: func(ctx context.Context) (*domain.ChallengeItem, error) {
				return v.store.SetCompletion(ctx, weekID, itemID, completed)
			},
			commit: func(saved *domain.ChallengeItem) {
				if saved != nil {
					v.setItem(weekID, itemID, func(item *domain.ChallengeItem) { item.Completed = saved.Completed })
				}
			},
			affectsProgress: true,
		}, nil
	})
}

// --- Patches; callers hold v.mu. Missing entries are ignored. ---

func (v *View) anyBusy(keys []string) bool {
	for _, key := range keys {
		if _, busy := v.updating[key]; busy {
			return true
		}
	}
	return false
}

func (v *View) setWeek(weekID primitive.ObjectID, fn func(*domain.Week)) {
	if i := v.weekIndex(weekID); i >= 0 {
		fn(&v.weeks[i].Week)
		v.sortWeeks()
	}
}

func (v *View) removeWeek(weekID primitive.ObjectID) {
	if i := v.weekIndex(weekID); i >= 0 {
		v.weeks = append(v.weeks[:i], v.weeks[i+1:]...)
	}
}

func (v *View) setItem(weekID, itemID primitive.ObjectID, fn func(*domain.ChallengeItem)) {
	if i, j, ok := v.findItem(weekID, itemID); ok {
		fn(&v.weeks[i].Items[j])
	}
}

func (v *View) removeItem(weekID, itemID primitive.ObjectID) {
	if i, j, ok := v.findItem(weekID, itemID); ok {
		items := v.weeks[i].Items
		v.weeks[i].Items = append(items[:j:j], items[j+1:]...)
	}
}

func (v *View) insertItem(weekID primitive.ObjectID, pos int, item domain.ChallengeItem) {
	i := v.weekIndex(weekID)
	if i < 0 {
		return
	}
	items := v.weeks[i].Items
	if pos > len(items) {
		pos = len(items)
	}
	out := make([]domain.ChallengeItem, 0, len(items)+1)
	out = append(out, items[:pos]...)
	out = append(out, item)
	out = append(out, items[pos:]...)
	v.weeks[i].Items = out
}
