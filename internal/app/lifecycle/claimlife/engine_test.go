package claimlife

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	claimstore "github.com/dalemusser/assurance/internal/app/store/claims"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/app/system/numbering"
	"github.com/dalemusser/assurance/internal/app/system/paging"
	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeStore struct {
	byID map[primitive.ObjectID]models.Claim

	// beforeWrite, when set, runs once just ahead of the next timeline or
	// Apply write, after the engine has read the claim.
	beforeWrite func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[primitive.ObjectID]models.Claim{}}
}

func (f *fakeStore) Create(_ context.Context, c models.Claim) (models.Claim, error) {
	for _, x := range f.byID {
		if x.ClaimNumber == c.ClaimNumber {
			return models.Claim{}, claimstore.ErrDuplicateNumber
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeStore) Get(_ context.Context, id, owner primitive.ObjectID) (models.Claim, error) {
	c, ok := f.byID[id]
	if !ok || c.UserID != owner {
		return models.Claim{}, mongo.ErrNoDocuments
	}
	return c, nil
}

func (f *fakeStore) List(_ context.Context, owner primitive.ObjectID, _ claimstore.Filter, _ paging.Params) ([]models.Claim, int64, error) {
	var out []models.Claim
	for _, c := range f.byID {
		if c.UserID == owner {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) interleave() {
	if hook := f.beforeWrite; hook != nil {
		f.beforeWrite = nil
		hook()
	}
}

func (f *fakeStore) Apply(_ context.Context, id, owner primitive.ObjectID, ch claimstore.Changes, now time.Time) (models.Claim, error) {
	f.interleave()
	if ch.Entry != nil {
		if c, ok := f.byID[id]; ok && c.UserID == owner && len(c.Timeline) != ch.Seen {
			return models.Claim{}, claimstore.ErrTimelineMoved
		}
	}
	return f.mutate(id, owner, now, func(c *models.Claim) {
		if ch.Incident != nil {
			c.Incident = *ch.Incident
		}
		if ch.Damages != nil {
			c.Damages = *ch.Damages
		}
		if ch.Priority != nil {
			c.Priority = *ch.Priority
		}
		if ch.Note != "" {
			c.Notes.Add(models.NoteUser, ch.Note)
		}
		if ch.Entry != nil {
			c.Timeline = append(c.Timeline, *ch.Entry)
			c.Status = ch.Entry.Status
		}
	})
}

func (f *fakeStore) mutate(id, owner primitive.ObjectID, now time.Time, fn func(c *models.Claim)) (models.Claim, error) {
	c, ok := f.byID[id]
	if !ok || c.UserID != owner {
		return models.Claim{}, mongo.ErrNoDocuments
	}
	fn(&c)
	c.UpdatedAt = now
	f.byID[id] = c
	return c, nil
}

func (f *fakeStore) AppendTimeline(_ context.Context, id, owner primitive.ObjectID, e models.TimelineEntry, seen int, now time.Time) (models.Claim, error) {
	f.interleave()
	if c, ok := f.byID[id]; ok && c.UserID == owner && len(c.Timeline) != seen {
		return models.Claim{}, claimstore.ErrTimelineMoved
	}
	return f.mutate(id, owner, now, func(c *models.Claim) {
		c.Timeline = append(c.Timeline, e)
		c.Status = e.Status
	})
}

func (f *fakeStore) AppendDocument(_ context.Context, id, owner primitive.ObjectID, d models.ClaimDocument, now time.Time) (models.Claim, error) {
	return f.mutate(id, owner, now, func(c *models.Claim) { c.Documents = append(c.Documents, d) })
}

func (f *fakeStore) AppendCommunication(_ context.Context, id, owner primitive.ObjectID, m models.Communication, now time.Time) (models.Claim, error) {
	return f.mutate(id, owner, now, func(c *models.Claim) { c.Communication = append(c.Communication, m) })
}

func (f *fakeStore) AppendNote(_ context.Context, id, owner primitive.ObjectID, bucket, text string, now time.Time) (models.Claim, error) {
	return f.mutate(id, owner, now, func(c *models.Claim) { c.Notes.Add(bucket, text) })
}

func (f *fakeStore) SetSettlement(_ context.Context, id, owner primitive.ObjectID, s models.Settlement, now time.Time) (models.Claim, error) {
	return f.mutate(id, owner, now, func(c *models.Claim) { c.Settlement = &s })
}

func (f *fakeStore) StatRows(_ context.Context, owner primitive.ObjectID) ([]models.ClaimStatRow, error) {
	rows := []models.ClaimStatRow{}
	for _, c := range f.byID {
		if c.UserID != owner {
			continue
		}
		r := models.ClaimStatRow{Status: c.Status, Priority: c.Priority, EstimatedAmount: c.Damages.EstimatedAmount}
		if c.Damages.ActualAmount != nil {
			r.ActualAmount = *c.Damages.ActualAmount
		}
		rows = append(rows, r)
	}
	return rows, nil
}

type fakePolicies map[primitive.ObjectID]primitive.ObjectID // policy id -> owner

func (f fakePolicies) Get(_ context.Context, id, owner primitive.ObjectID) (models.Policy, error) {
	if o, ok := f[id]; !ok || o != owner {
		return models.Policy{}, mongo.ErrNoDocuments
	}
	return models.Policy{ID: id, UserID: owner}, nil
}

type fixture struct {
	engine   *Engine
	store    *fakeStore
	owner    primitive.ObjectID
	policyID primitive.ObjectID
	now      time.Time
}

func newFixture() *fixture {
	fx := &fixture{
		store:    newFakeStore(),
		owner:    primitive.NewObjectID(),
		policyID: primitive.NewObjectID(),
		now:      time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
	}
	fx.engine = New(fx.store, fakePolicies{fx.policyID: fx.owner}, nil, nil, zap.NewNop())
	fx.engine.Now = func() time.Time { return fx.now }
	return fx
}

func (fx *fixture) advance(d time.Duration) { fx.now = fx.now.Add(d) }

func lines(n int) []models.DamageLine {
	out := make([]models.DamageLine, n)
	for i := range out {
		out[i] = models.DamageLine{Item: fmt.Sprintf("part %d", i+1), EstimatedCost: 100}
	}
	return out
}

func (fx *fixture) input() CreateInput {
	return CreateInput{
		PolicyID: fx.policyID,
		Type:     models.ClaimAccident,
		Incident: models.Incident{
			Date:        time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			Time:        "14:30",
			Location:    models.Location{Address: "Bd Zerktouni", City: "Casablanca"},
			Description: "Rear-ended at a red light",
		},
		Damages: models.Damages{
			EstimatedAmount: 12000,
			Details:         []models.DamageLine{{Item: "bumper", EstimatedCost: 12000}},
		},
	}
}

func (fx *fixture) create(t *testing.T) View {
	t.Helper()
	v, err := fx.engine.Create(context.Background(), fx.owner, fx.input())
	require.NoError(t, err)
	return v
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.As(err).Code, "error: %v", err)
}

func requireStatusMatchesTimeline(t *testing.T, c models.Claim) {
	t.Helper()
	require.NotEmpty(t, c.Timeline)
	assert.Equal(t, c.Timeline[len(c.Timeline)-1].Status, c.Status)
}

var claimNumberRE = regexp.MustCompile(`^CLM2025\d{4}$`)

func TestCreate_Scenario(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	v := fx.create(t)
	assert.Regexp(t, claimNumberRE, v.ClaimNumber)
	assert.Equal(t, models.ClaimDraft, v.Status)
	assert.Equal(t, models.PriorityMedium, v.Priority)
	assert.Equal(t, models.ClaimCurrency, v.Damages.Currency)
	assert.Equal(t, models.LinePending, v.Damages.Details[0].Status)
	require.Len(t, v.Timeline, 1)
	assert.Equal(t, models.TimelineEntry{
		Date:        fx.now,
		Status:      models.ClaimDraft,
		Description: "Claim created",
		UpdatedBy:   models.ActorUser,
	}, v.Timeline[0])

	fx.advance(time.Hour)
	v, err := fx.engine.AddTimelineEntry(ctx, fx.owner, v.ID, TimelineInput{
		Status:      models.ClaimSubmitted,
		Description: "Sent to insurer",
	})
	require.NoError(t, err)
	require.Len(t, v.Timeline, 2)
	assert.Equal(t, models.ClaimSubmitted, v.Status)
	assert.Equal(t, models.ActorUser, v.Timeline[1].UpdatedBy)
	requireStatusMatchesTimeline(t, v.Claim)
}

func TestCreate_DamageLineBounds(t *testing.T) {
	tests := []struct {
		n  int
		ok bool
	}{
		{0, false},
		{1, true},
		{20, true},
		{21, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d lines", tt.n), func(t *testing.T) {
			fx := newFixture()
			in := fx.input()
			in.Damages.Details = lines(tt.n)
			_, err := fx.engine.Create(context.Background(), fx.owner, in)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			requireCode(t, err, apperr.CodeValidation)
		})
	}
}

func TestCreate_Validation(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"unknown type", func(in *CreateInput) { in.Type = "Flood" }},
		{"zero estimated amount", func(in *CreateInput) { in.Damages.EstimatedAmount = 0 }},
		{"negative actual amount", func(in *CreateInput) { in.Damages.ActualAmount = &negative }},
		{"zero line cost", func(in *CreateInput) { in.Damages.Details[0].EstimatedCost = 0 }},
		{"bad line status", func(in *CreateInput) { in.Damages.Details[0].Status = "Paid" }},
		{"bad priority", func(in *CreateInput) { in.Priority = "Whenever" }},
		{"six witnesses", func(in *CreateInput) { in.Incident.Witnesses = make([]models.Witness, 6) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			in := fx.input()
			tt.mutate(&in)
			_, err := fx.engine.Create(context.Background(), fx.owner, in)
			requireCode(t, err, apperr.CodeValidation)
			assert.Empty(t, fx.store.byID)
		})
	}
}

func TestCreate_PolicyMustBelongToCaller(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	in := fx.input()
	in.PolicyID = primitive.NewObjectID()
	_, err := fx.engine.Create(ctx, fx.owner, in)
	requireCode(t, err, CodePolicyNotFound)

	_, err = fx.engine.Create(ctx, primitive.NewObjectID(), fx.input())
	requireCode(t, err, CodePolicyNotFound)
	assert.Empty(t, fx.store.byID)
}

func TestCreate_NumberCollisionRetries(t *testing.T) {
	fx := newFixture()
	draws := []string{"0001", "0001", "0002"}
	fx.engine.Numbers = numbering.Generator{Digits: func(int) (string, error) {
		d := draws[0]
		draws = draws[1:]
		return d, nil
	}}

	first := fx.create(t)
	second := fx.create(t)
	assert.Equal(t, "CLM20250001", first.ClaimNumber)
	assert.Equal(t, "CLM20250002", second.ClaimNumber)
}

func TestCreate_KeepsSuppliedNumber(t *testing.T) {
	fx := newFixture()
	in := fx.input()
	in.ClaimNumber = "CLM-IMPORTED-7"
	v, err := fx.engine.Create(context.Background(), fx.owner, in)
	require.NoError(t, err)
	assert.Equal(t, "CLM-IMPORTED-7", v.ClaimNumber)

	_, err = fx.engine.Create(context.Background(), fx.owner, in)
	requireCode(t, err, CodeCreationFailed)
}

func TestUpdate_KeepsConcurrentAppends(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	// A timeline entry, a document and a note land after Update has read
	// the claim and before it writes.
	fx.store.beforeWrite = func() {
		_, err := fx.engine.AddTimelineEntry(ctx, fx.owner, v.ID, TimelineInput{Status: models.ClaimSubmitted})
		require.NoError(t, err)
		_, err = fx.engine.AddDocument(ctx, fx.owner, v.ID, DocumentInput{Type: "photo", Filename: "rear.jpg"})
		require.NoError(t, err)
		_, err = fx.engine.AddNote(ctx, fx.owner, v.ID, models.NoteAgent, "called the garage")
		require.NoError(t, err)
	}

	high := models.PriorityHigh
	note := "Tow receipt attached"
	got, err := fx.engine.Update(ctx, fx.owner, v.ID, Patch{Priority: &high, Notes: &note})
	require.NoError(t, err)
	assert.Len(t, got.Timeline, 2)
	assert.Equal(t, models.ClaimSubmitted, got.Status)
	assert.Len(t, got.Documents, 1)
	assert.Equal(t, []string{"called the garage"}, got.Notes.Agent)
	assert.Equal(t, []string{note}, got.Notes.User)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	requireStatusMatchesTimeline(t, got.Claim)
}

func TestUpdate_StatusRetriesWhenTimelineMoves(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	fx.store.beforeWrite = func() {
		fx.advance(time.Hour)
		_, err := fx.engine.AddTimelineEntry(ctx, fx.owner, v.ID, TimelineInput{Status: models.ClaimSubmitted})
		require.NoError(t, err)
		fx.advance(-2 * time.Hour)
	}

	review := models.ClaimUnderReview
	got, err := fx.engine.Update(ctx, fx.owner, v.ID, Patch{Status: &review})
	require.NoError(t, err)
	require.Len(t, got.Timeline, 3)
	assert.Equal(t, models.ClaimSubmitted, got.Timeline[1].Status)
	assert.Equal(t, models.ClaimUnderReview, got.Timeline[2].Status)
	assert.False(t, got.Timeline[2].Date.Before(got.Timeline[1].Date))
	requireStatusMatchesTimeline(t, got.Claim)
}

func TestAddTimelineEntry_ConflictAfterRetries(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	// Every write finds the timeline one entry longer than it read.
	var push func()
	push = func() {
		c := fx.store.byID[v.ID]
		c.AddTimelineEntry(fx.now, models.ClaimSubmitted, "", models.ActorAgent, nil, false)
		fx.store.byID[v.ID] = c
		fx.store.beforeWrite = push
	}
	fx.store.beforeWrite = push

	_, err := fx.engine.AddTimelineEntry(ctx, fx.owner, v.ID, TimelineInput{Status: models.ClaimUnderReview})
	requireCode(t, err, CodeUpdateConflict)
	fx.store.beforeWrite = nil

	got, err := fx.engine.Get(ctx, fx.owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimSubmitted, got.Status)
	requireStatusMatchesTimeline(t, got.Claim)
}

func TestAddTimelineEntry_Properties(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	sequence := []models.ClaimStatus{
		models.ClaimSubmitted, models.ClaimUnderReview, models.ClaimInvestigation,
		models.ClaimApproved, models.ClaimClosed, models.ClaimReopened, models.ClaimRejected,
	}
	for i, s := range sequence {
		// Even steps move the clock backwards to simulate skew.
		if i%2 == 0 {
			fx.advance(-time.Minute)
		} else {
			fx.advance(2 * time.Hour)
		}
		before := len(v.Timeline)
		next, err := fx.engine.AddTimelineEntry(ctx, fx.owner, v.ID, TimelineInput{
			Status:    s,
			UpdatedBy: models.ActorAgent,
			Internal:  i%3 == 0,
		})
		require.NoError(t, err)
		assert.Len(t, next.Timeline, before+1)
		requireStatusMatchesTimeline(t, next.Claim)
		v = next
	}
	for i := 1; i < len(v.Timeline); i++ {
		assert.False(t, v.Timeline[i].Date.Before(v.Timeline[i-1].Date), "entry %d went back in time", i)
	}
}

func TestAddTimelineEntry_Errors(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	_, err := fx.engine.AddTimelineEntry(ctx, fx.owner, v.ID, TimelineInput{Status: "Paid"})
	requireCode(t, err, CodeInvalidStatus)
	assert.Equal(t, apperr.KindValidation, apperr.As(err).Kind)

	_, err = fx.engine.AddTimelineEntry(ctx, fx.owner, v.ID, TimelineInput{Status: models.ClaimSubmitted, UpdatedBy: "robot"})
	requireCode(t, err, apperr.CodeValidation)

	_, err = fx.engine.AddTimelineEntry(ctx, primitive.NewObjectID(), v.ID, TimelineInput{Status: models.ClaimSubmitted})
	requireCode(t, err, CodeNotFound)

	got, err := fx.engine.Get(ctx, fx.owner, v.ID)
	require.NoError(t, err)
	assert.Len(t, got.Timeline, 1)
}

func TestGet_DerivedFields(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	_, err := fx.engine.AddDocument(ctx, fx.owner, v.ID, DocumentInput{Type: "photo", Filename: "front.jpg"})
	require.NoError(t, err)

	fx.advance(3*24*time.Hour + time.Hour)
	got, err := fx.engine.Get(ctx, fx.owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.AgeInDays)
	assert.Equal(t, 4, got.DaysSinceLastUpdate)
	assert.Equal(t, 1, got.DocumentsCount)
	assert.Equal(t, 0, got.CommunicationCount)
	assert.NotNil(t, got.Communication)

	_, err = fx.engine.Get(ctx, primitive.NewObjectID(), v.ID)
	requireCode(t, err, CodeNotFound)
}

func TestUpdate_StatusGoesThroughTimeline(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	status := models.ClaimSubmitted
	note := "Photos sent by email"
	fx.advance(time.Hour)
	v, err := fx.engine.Update(ctx, fx.owner, v.ID, Patch{Status: &status, Notes: &note})
	require.NoError(t, err)
	require.Len(t, v.Timeline, 2)
	assert.Equal(t, "Status updated to Submitted", v.Timeline[1].Description)
	assert.Equal(t, models.ActorUser, v.Timeline[1].UpdatedBy)
	assert.Equal(t, []string{note}, v.Notes.User)
	requireStatusMatchesTimeline(t, v.Claim)

	// Same status again: no new entry.
	v, err = fx.engine.Update(ctx, fx.owner, v.ID, Patch{Status: &status})
	require.NoError(t, err)
	assert.Len(t, v.Timeline, 2)

	bogus := models.ClaimStatus("Paid")
	_, err = fx.engine.Update(ctx, fx.owner, v.ID, Patch{Status: &bogus})
	requireCode(t, err, CodeInvalidStatus)
}

func TestUpdate_DamageLinesMergeByPosition(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	actual := 11000.0
	approved := models.LineApproved
	item := "headlight"
	cost := 800.0
	v, err := fx.engine.Update(ctx, fx.owner, v.ID, Patch{Damages: &DamagesPatch{
		Details: []LinePatch{
			{ActualCost: &actual, Status: &approved},
			{Item: &item, EstimatedCost: &cost},
		},
	}})
	require.NoError(t, err)
	require.Len(t, v.Damages.Details, 2)
	assert.Equal(t, "bumper", v.Damages.Details[0].Item)
	assert.Equal(t, models.LineApproved, v.Damages.Details[0].Status)
	assert.Equal(t, actual, *v.Damages.Details[0].ActualCost)
	assert.Equal(t, models.LinePending, v.Damages.Details[1].Status)
	// Line status never touches the claim status.
	assert.Equal(t, models.ClaimDraft, v.Status)
	assert.Len(t, v.Timeline, 1)
}

func TestUpdate_Rechecks(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	extra := make([]LinePatch, 21)
	cost := 10.0
	for i := range extra {
		extra[i] = LinePatch{EstimatedCost: &cost}
	}
	_, err := fx.engine.Update(ctx, fx.owner, v.ID, Patch{Damages: &DamagesPatch{Details: extra}})
	requireCode(t, err, apperr.CodeValidation)

	zero := 0.0
	_, err = fx.engine.Update(ctx, fx.owner, v.ID, Patch{Damages: &DamagesPatch{EstimatedAmount: &zero}})
	requireCode(t, err, apperr.CodeValidation)

	_, err = fx.engine.Update(ctx, fx.owner, v.ID, Patch{Incident: &IncidentPatch{Witnesses: make([]models.Witness, 6)}})
	requireCode(t, err, apperr.CodeValidation)

	got, err := fx.engine.Get(ctx, fx.owner, v.ID)
	require.NoError(t, err)
	assert.Len(t, got.Damages.Details, 1)
	assert.Equal(t, 12000.0, got.Damages.EstimatedAmount)

	city := "Rabat"
	got, err = fx.engine.Update(ctx, fx.owner, v.ID, Patch{Incident: &IncidentPatch{Location: &LocationPatch{City: &city}}})
	require.NoError(t, err)
	assert.Equal(t, "Rabat", got.Incident.Location.City)
	assert.Equal(t, "Bd Zerktouni", got.Incident.Location.Address)
}

func TestAddDocument(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	v, err := fx.engine.AddDocument(ctx, fx.owner, v.ID, DocumentInput{Type: "police_report", Filename: "pv.pdf", Size: 2048})
	require.NoError(t, err)
	require.Len(t, v.Documents, 1)
	doc := v.Documents[0]
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, models.ActorUser, doc.UploadedBy)
	assert.Equal(t, fx.now, doc.UploadedAt)

	_, err = fx.engine.AddDocument(ctx, fx.owner, v.ID, DocumentInput{Type: "selfie", Filename: "x.jpg"})
	requireCode(t, err, apperr.CodeValidation)
	_, err = fx.engine.AddDocument(ctx, fx.owner, v.ID, DocumentInput{Type: "photo"})
	requireCode(t, err, apperr.CodeValidation)
	_, err = fx.engine.AddDocument(ctx, primitive.NewObjectID(), v.ID, DocumentInput{Type: "photo", Filename: "x.jpg"})
	requireCode(t, err, CodeNotFound)
}

func TestAddCommunication(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	v, err := fx.engine.AddCommunication(ctx, fx.owner, v.ID, CommunicationInput{Type: "phone", Direction: "outbound", Summary: "Asked for the police report"})
	require.NoError(t, err)
	require.Len(t, v.Communication, 1)
	assert.Equal(t, fx.now, v.Communication[0].Date)
	assert.Equal(t, 1, v.CommunicationCount)

	_, err = fx.engine.AddCommunication(ctx, fx.owner, v.ID, CommunicationInput{Type: "fax", Direction: "inbound", Summary: "x"})
	requireCode(t, err, apperr.CodeValidation)
	_, err = fx.engine.AddCommunication(ctx, fx.owner, v.ID, CommunicationInput{Type: "sms", Direction: "sideways", Summary: "x"})
	requireCode(t, err, apperr.CodeValidation)
	_, err = fx.engine.AddCommunication(ctx, fx.owner, v.ID, CommunicationInput{Type: "sms", Direction: "inbound", Summary: "  "})
	requireCode(t, err, apperr.CodeValidation)
}

func TestAddNote_Buckets(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	for _, bucket := range []string{models.NoteUser, models.NoteAgent, models.NoteSystem, models.NoteAgent} {
		var err error
		v, err = fx.engine.AddNote(ctx, fx.owner, v.ID, bucket, "note for "+bucket)
		require.NoError(t, err)
	}
	assert.Len(t, v.Notes.User, 1)
	assert.Len(t, v.Notes.Agent, 2)
	assert.Len(t, v.Notes.System, 1)

	_, err := fx.engine.AddNote(ctx, fx.owner, v.ID, "broker", "x")
	requireCode(t, err, apperr.CodeValidation)
}

func TestSetSettlement_LeavesStatusAlone(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	v := fx.create(t)

	v, err := fx.engine.SetSettlement(ctx, fx.owner, v.ID, SettlementInput{Amount: 9500, Method: models.SettleBankTransfer, Reference: "VIR-88"})
	require.NoError(t, err)
	require.NotNil(t, v.Settlement)
	assert.Equal(t, 9500.0, v.Settlement.Amount)
	assert.Equal(t, models.ClaimCurrency, v.Settlement.Currency)
	assert.Equal(t, models.ClaimDraft, v.Status)
	assert.Len(t, v.Timeline, 1)

	_, err = fx.engine.SetSettlement(ctx, fx.owner, v.ID, SettlementInput{Amount: 0, Method: models.SettleCash})
	requireCode(t, err, apperr.CodeValidation)
	_, err = fx.engine.SetSettlement(ctx, fx.owner, v.ID, SettlementInput{Amount: 10, Method: "Crypto"})
	requireCode(t, err, apperr.CodeValidation)
}

func TestStats(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	s, err := fx.engine.Stats(ctx, fx.owner)
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalClaims)
	assert.NotNil(t, s.ClaimsByStatus)
	assert.Zero(t, s.AverageEstimatedAmount)

	amounts := []float64{12000, 0.1, 0.2}
	for _, a := range amounts {
		in := fx.input()
		in.Damages.EstimatedAmount = a
		_, err := fx.engine.Create(ctx, fx.owner, in)
		require.NoError(t, err)
	}
	v := fx.create(t)
	actual := 4000.5
	_, err = fx.engine.Update(ctx, fx.owner, v.ID, Patch{Damages: &DamagesPatch{ActualAmount: &actual}})
	require.NoError(t, err)

	s, err = fx.engine.Stats(ctx, fx.owner)
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalClaims)
	assert.Len(t, s.ClaimsByStatus, 4)
	assert.Equal(t, 24000.3, s.TotalEstimatedAmount)
	assert.Equal(t, 4000.5, s.TotalActualAmount)
	assert.Equal(t, 6000.08, s.AverageEstimatedAmount)
}

func TestList(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.create(t)
	fx.create(t)

	res, err := fx.engine.List(ctx, fx.owner, claimstore.Filter{}, paging.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, res.Claims, 2)
	assert.Equal(t, int64(2), res.Pagination.TotalItems)

	res, err = fx.engine.List(ctx, primitive.NewObjectID(), claimstore.Filter{}, paging.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Claims)
	assert.NotNil(t, res.Claims)
}

func TestFail_MapsErrors(t *testing.T) {
	assert.Equal(t, CodeNotFound, apperr.As(fail(CodeUpdateFailed, mongo.ErrNoDocuments)).Code)
	internal := apperr.As(fail(CodeUpdateFailed, errors.New("boom")))
	assert.Equal(t, CodeUpdateFailed, internal.Code)
	assert.Equal(t, apperr.KindInternal, internal.Kind)
}
