package nakama

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"whist/internal/domain"
	"whist/internal/ports"
)

// fakeStorage is an in-memory StorageAPI with Nakama's version checks.
type fakeStorage struct {
	objects map[string]*api.StorageObject
	writes  []*runtime.StorageWrite
	nextVer int
	readErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]*api.StorageObject)}
}

func storageKey(collection, key, userID string) string {
	return collection + "/" + key + "/" + userID
}

func (f *fakeStorage) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []*api.StorageObject
	for _, r := range reads {
		if obj, ok := f.objects[storageKey(r.Collection, r.Key, r.UserID)]; ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	// All or nothing, like a storage transaction.
	for _, w := range writes {
		existing, ok := f.objects[storageKey(w.Collection, w.Key, w.UserID)]
		switch {
		case w.Version == "":
		case w.Version == "*":
			if ok {
				return nil, runtime.ErrStorageRejectedVersion
			}
		case !ok || existing.Version != w.Version:
			return nil, runtime.ErrStorageRejectedVersion
		}
	}
	acks := make([]*api.StorageObjectAck, 0, len(writes))
	for _, w := range writes {
		f.nextVer++
		version := fmt.Sprintf("v%d", f.nextVer)
		f.objects[storageKey(w.Collection, w.Key, w.UserID)] = &api.StorageObject{
			Collection:      w.Collection,
			Key:             w.Key,
			UserId:          w.UserID,
			Value:           w.Value,
			Version:         version,
			PermissionRead:  int32(w.PermissionRead),
			PermissionWrite: int32(w.PermissionWrite),
		}
		f.writes = append(f.writes, w)
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, UserId: w.UserID, Version: version})
	}
	return acks, nil
}

func TestNakamaGameStore_SaveLoad(t *testing.T) {
	storage := newFakeStorage()
	store := NewNakamaGameStore(storage)
	ctx := context.Background()

	g := domain.NewGame("game-1", domain.Options{Seed: 9})
	if _, err := g.AddPlayer("user-1", "Alice", false, ""); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := store.Save(ctx, g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w := storage.writes[0]
	if w.Collection != gamesCollection || w.UserID != "" {
		t.Fatalf("game written to %s/%s, want system-owned %s", w.Collection, w.UserID, gamesCollection)
	}
	if w.PermissionRead != runtime.STORAGE_PERMISSION_NO_READ || w.PermissionWrite != runtime.STORAGE_PERMISSION_NO_WRITE {
		t.Fatal("games must not be readable or writable by clients")
	}

	loaded, err := store.Load(ctx, "game-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != g.ID || loaded.Version != g.Version || loaded.Seats[0].Name != "Alice" {
		t.Fatalf("loaded %+v, want %+v", loaded, g)
	}
}

func TestNakamaGameStore_LoadMissing(t *testing.T) {
	store := NewNakamaGameStore(newFakeStorage())
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Load error = %v, want ErrNotFound", err)
	}
}

func TestNakamaGameStore_ReadFailure(t *testing.T) {
	storage := newFakeStorage()
	storage.readErr = errors.New("db down")
	_, err := NewNakamaGameStore(storage).Load(context.Background(), "game-1")
	if err == nil || errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Load error = %v, want a storage failure", err)
	}
}

func TestNakamaRecordAdapter_CreateRecordOnce(t *testing.T) {
	adapter := NewNakamaRecordAdapter(newFakeStorage())
	ctx := context.Background()

	created, err := adapter.CreateRecordOnce(ctx, "user-1")
	if err != nil || !created {
		t.Fatalf("first CreateRecordOnce = %t, %v; want true, nil", created, err)
	}
	created, err = adapter.CreateRecordOnce(ctx, "user-1")
	if err != nil || created {
		t.Fatalf("second CreateRecordOnce = %t, %v; want false, nil", created, err)
	}
	if _, err := adapter.CreateRecordOnce(ctx, ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func testSummary(gameID string) domain.GameSummary {
	return domain.GameSummary{
		GameID: gameID,
		Standings: []domain.Standing{
			{Seat: 2, PlayerID: "user-1", Score: 120, Rank: 1},
			{Seat: 0, PlayerID: "bot-0", IsAI: true, Score: 120, Rank: 1},
			{Seat: 1, PlayerID: "user-2", Score: 80, Rank: 3},
			{Seat: 3, PlayerID: "bot-1", IsAI: true, Score: 40, Rank: 4},
		},
	}
}

func TestNakamaRecordAdapter_RecordResults(t *testing.T) {
	storage := newFakeStorage()
	adapter := NewNakamaRecordAdapter(storage)
	adapter.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	if _, err := adapter.CreateRecordOnce(ctx, "user-1"); err != nil {
		t.Fatalf("CreateRecordOnce: %v", err)
	}
	if err := adapter.RecordResults(ctx, testSummary("game-1")); err != nil {
		t.Fatalf("RecordResults: %v", err)
	}
	// Recording the same game again must not count it twice.
	if err := adapter.RecordResults(ctx, testSummary("game-1")); err != nil {
		t.Fatalf("RecordResults again: %v", err)
	}
	if err := adapter.RecordResults(ctx, testSummary("game-2")); err != nil {
		t.Fatalf("RecordResults game-2: %v", err)
	}

	rec, err := adapter.GetRecord(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	want := ports.PlayerRecord{GamesPlayed: 2, Wins: 2, TotalPoints: 240, BestScore: 120, LastGameID: "game-2"}
	if rec != want {
		t.Fatalf("user-1 record = %+v, want %+v", rec, want)
	}

	rec, err = adapter.GetRecord(ctx, "user-2")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.GamesPlayed != 2 || rec.Wins != 0 || rec.BestScore != 80 {
		t.Fatalf("user-2 record = %+v", rec)
	}

	if _, ok := storage.objects[storageKey(recordsCollection, recordKey, "bot-0")]; ok {
		t.Fatal("AI seats must not get records")
	}
	result, ok := storage.objects[storageKey(resultsCollection, "game-1", "user-2")]
	if !ok {
		t.Fatal("missing per-game result for user-2")
	}
	if result.PermissionRead != int32(runtime.STORAGE_PERMISSION_OWNER_READ) {
		t.Fatalf("result permission = %d, want owner read", result.PermissionRead)
	}
}

func TestNakamaRecordAdapter_GetRecordMissing(t *testing.T) {
	rec, err := NewNakamaRecordAdapter(newFakeStorage()).GetRecord(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec != (ports.PlayerRecord{}) {
		t.Fatalf("record = %+v, want zero", rec)
	}
}

type fakeAccountAPI struct {
	account *api.Account
	updated []string
}

func (f *fakeAccountAPI) AccountGetId(ctx context.Context, userID string) (*api.Account, error) {
	if f.account == nil {
		return nil, errors.New("not found")
	}
	return f.account, nil
}

func (f *fakeAccountAPI) AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error {
	f.updated = append(f.updated, userID+":"+username+":"+displayName)
	return nil
}

func TestNakamaAccountAdapter(t *testing.T) {
	ctx := context.Background()

	nk := &fakeAccountAPI{account: &api.Account{User: &api.User{Username: "alice99", DisplayName: "Alice"}}}
	adapter := NewNakamaAccountAdapter(nk)
	if name, err := adapter.DisplayName(ctx, "user-1"); err != nil || name != "Alice" {
		t.Fatalf("DisplayName = %q, %v; want Alice", name, err)
	}

	nk.account.User.DisplayName = ""
	if name, _ := adapter.DisplayName(ctx, "user-1"); name != "alice99" {
		t.Fatalf("DisplayName fallback = %q, want alice99", name)
	}

	if err := adapter.UpdateProfile(ctx, "user-1", "BoldAce1234", "BoldAce1234"); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if len(nk.updated) != 1 || nk.updated[0] != "user-1:BoldAce1234:BoldAce1234" {
		t.Fatalf("updates = %v", nk.updated)
	}

	if _, err := NewNakamaAccountAdapter(&fakeAccountAPI{}).DisplayName(ctx, "user-1"); err == nil {
		t.Fatal("expected error for missing account")
	}
}
