package memory_test

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/qrave1/anonspeak/internal/domain/errs"
	"github.com/qrave1/anonspeak/internal/domain/input"
	"github.com/qrave1/anonspeak/internal/infra/adapters/memory"
)

func newTestRegistry(t *testing.T, opts memory.RegistryOptions) memory.RoomRegistry {
	t.Helper()

	r := memory.NewRoomRegistry(opts)
	t.Cleanup(r.Close)

	return r
}

func register(t *testing.T, r memory.RoomRegistry, name string) string {
	t.Helper()

	s, created := r.Register("conn-"+name, name)
	if !created {
		t.Fatalf("session for %s already existed", name)
	}

	return s.ID
}

func createRoom(t *testing.T, r memory.RoomRegistry, in input.CreateRoomInput) string {
	t.Helper()

	room, err := r.CreateRoom(in)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	return room.ID
}

func mustJoin(t *testing.T, r memory.RoomRegistry, roomID, sessionID, password string) {
	t.Helper()

	if _, err := r.JoinRoom(roomID, sessionID, password); err != nil {
		t.Fatalf("JoinRoom(%s) failed: %v", sessionID, err)
	}
}

func TestScenarioSmallRoomLifecycle(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	a := register(t, r, "a")
	b := register(t, r, "b")
	c := register(t, r, "c")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "Test", MaxUsers: 2, OwnerID: a})

	info, err := r.JoinRoom(roomID, a, "")
	if err != nil {
		t.Fatalf("join A failed: %v", err)
	}
	if !info.IsOwner || !info.IsModerator {
		t.Errorf("expected A to be owner and moderator, got %+v", info)
	}

	info, err = r.JoinRoom(roomID, b, "")
	if err != nil {
		t.Fatalf("join B failed: %v", err)
	}
	if info.IsOwner {
		t.Error("B must not be owner")
	}
	if len(info.Members) != 2 || info.Members[0].ID != a || info.Members[1].ID != b {
		t.Errorf("unexpected member order: %+v", info.Members)
	}

	if _, err = r.JoinRoom(roomID, c, ""); !errors.Is(err, errs.ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull for C, got %v", err)
	}

	dep, err := r.LeaveRoom(roomID, a)
	if err != nil {
		t.Fatalf("A leave failed: %v", err)
	}
	if dep.Room.Deleted {
		t.Fatal("room must persist while B is inside")
	}
	if _, err = r.GetRoom(roomID); err != nil {
		t.Fatalf("room should still resolve: %v", err)
	}

	dep, err = r.LeaveRoom(roomID, b)
	if err != nil {
		t.Fatalf("B leave failed: %v", err)
	}
	if !dep.Room.Deleted {
		t.Error("expected room to be deleted when emptied")
	}
	if _, err = r.GetRoom(roomID); !errors.Is(err, errs.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound after last leave, got %v", err)
	}
}

func TestConcurrentJoinsNeverOvershoot(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	const maxUsers = 5
	const sessions = 60

	owner := register(t, r, "owner")
	roomID := createRoom(t, r, input.CreateRoomInput{Name: "busy", MaxUsers: maxUsers, OwnerID: owner})

	ids := make([]string, sessions)
	for i := range ids {
		ids[i] = register(t, r, "user"+strings.Repeat("x", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		full      int
	)

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			_, err := r.JoinRoom(roomID, id, "")

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, errs.ErrRoomFull):
				full++
			default:
				t.Errorf("unexpected join error: %v", err)
			}
		}(id)
	}

	wg.Wait()

	if succeeded != maxUsers {
		t.Errorf("expected %d successful joins, got %d", maxUsers, succeeded)
	}
	if full != sessions-maxUsers {
		t.Errorf("expected %d full rejections, got %d", sessions-maxUsers, full)
	}

	state, err := r.RoomState(roomID)
	if err != nil {
		t.Fatalf("RoomState failed: %v", err)
	}
	if len(state.Members) != maxUsers {
		t.Errorf("expected %d members, got %d", maxUsers, len(state.Members))
	}
}

func TestBannedSessionCannotRejoinAfterRename(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")
	troll := register(t, r, "troll")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "calm", OwnerID: owner})
	mustJoin(t, r, roomID, owner, "")
	mustJoin(t, r, roomID, troll, "")

	dep, err := r.Ban(roomID, owner, troll)
	if err != nil {
		t.Fatalf("Ban failed: %v", err)
	}
	if dep.Session.ID != troll {
		t.Errorf("expected departure of %s, got %s", troll, dep.Session.ID)
	}
	if _, ok := dep.Room.Member(troll); ok {
		t.Error("banned session still listed in room snapshot")
	}

	renamed, created := r.Register("conn-troll", "totally-new-name")
	if created {
		t.Fatal("re-register on the same connection must not create a new session")
	}
	if renamed.Name != "totally-new-name" || renamed.ID != troll {
		t.Errorf("unexpected re-registered session: %+v", renamed)
	}

	if _, err = r.JoinRoom(roomID, troll, ""); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("expected ErrForbidden for banned session, got %v", err)
	}
}

func TestWrongPasswordDoesNotMutateMembership(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")
	guest := register(t, r, "guest")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "vault", Password: "hunter2", OwnerID: owner})
	mustJoin(t, r, roomID, owner, "hunter2")

	for _, pw := range []string{"", "hunter3"} {
		if _, err := r.JoinRoom(roomID, guest, pw); !errors.Is(err, errs.ErrInvalidPassword) {
			t.Errorf("expected ErrInvalidPassword for %q, got %v", pw, err)
		}
	}

	state, _ := r.RoomState(roomID)
	if len(state.Members) != 1 {
		t.Errorf("expected membership unchanged, got %d members", len(state.Members))
	}

	if s, _ := r.GetUserByID(guest); s.RoomID != "" {
		t.Errorf("guest must not be attached to a room, got %q", s.RoomID)
	}

	mustJoin(t, r, roomID, guest, "hunter2")
}

func TestPermanentRoomSurvivesEmptiness(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	err := r.SeedPermanentRooms([]input.CreateRoomInput{
		{Name: "Lobby", MaxUsers: 50},
		{Name: "Gaming", MaxUsers: 30},
	})
	if err != nil {
		t.Fatalf("SeedPermanentRooms failed: %v", err)
	}

	rooms := r.PublicRooms()
	if len(rooms) != 2 || rooms[0].Name != "Lobby" || !rooms[0].Permanent {
		t.Fatalf("unexpected seeded rooms: %+v", rooms)
	}

	lobby, err := r.GetRoom(rooms[0].ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if lobby.OwnerID != "" {
		t.Errorf("permanent rooms are ownerless, got owner %q", lobby.OwnerID)
	}

	s := register(t, r, "visitor")
	mustJoin(t, r, lobby.ID, s, "")

	dep, err := r.LeaveRoom(lobby.ID, s)
	if err != nil {
		t.Fatalf("LeaveRoom failed: %v", err)
	}
	if dep.Room.Deleted {
		t.Error("permanent room must not be deleted")
	}

	if _, err = r.GetRoom(lobby.ID); err != nil {
		t.Errorf("permanent room should resolve: %v", err)
	}
	if _, err = r.GetRoomByCode(lobby.Code); err != nil {
		t.Errorf("permanent room should resolve by code: %v", err)
	}
}

func TestLeaveToEmptyMakesCodeUnresolvable(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	a := register(t, r, "a")
	room, err := r.CreateRoom(input.CreateRoomInput{Name: "temp", OwnerID: a})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	mustJoin(t, r, room.ID, a, "")

	if _, err = r.LeaveRoom(room.ID, a); err != nil {
		t.Fatalf("LeaveRoom failed: %v", err)
	}

	if _, err = r.GetRoomByCode(room.Code); !errors.Is(err, errs.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound by code, got %v", err)
	}
	if len(r.PublicRooms()) != 0 {
		t.Error("deleted room still listed")
	}
}

func TestGetRoomByCodeIsCaseInsensitive(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	room, err := r.CreateRoom(input.CreateRoomInput{Name: "invite"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	got, err := r.GetRoomByCode(" " + strings.ToLower(room.Code) + " ")
	if err != nil {
		t.Fatalf("GetRoomByCode failed: %v", err)
	}
	if got.ID != room.ID {
		t.Errorf("expected %s, got %s", room.ID, got.ID)
	}

	if _, err = r.GetRoomByCode(""); !errors.Is(err, errs.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound for empty code, got %v", err)
	}
}

func TestTransferOwnershipIsAtomic(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	a := register(t, r, "a")
	b := register(t, r, "b")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "handover", OwnerID: a})
	mustJoin(t, r, roomID, a, "")
	mustJoin(t, r, roomID, b, "")

	state, err := r.TransferOwnership(roomID, a, b)
	if err != nil {
		t.Fatalf("TransferOwnership failed: %v", err)
	}

	if !r.IsOwner(roomID, b) || r.IsOwner(roomID, a) {
		t.Error("expected b to be the only owner")
	}
	if !r.IsModerator(roomID, b) {
		t.Error("new owner must be a moderator")
	}

	owners := 0
	for _, m := range state.Members {
		if m.IsOwner {
			owners++
		}
	}
	if owners != 1 {
		t.Errorf("snapshot must contain exactly one owner, got %d", owners)
	}

	if _, err = r.TransferOwnership(roomID, a, a); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("former owner must not transfer again, got %v", err)
	}
}

func TestTransferChainKeepsModeratorGrants(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	a := register(t, r, "a")
	b := register(t, r, "b")
	c := register(t, r, "c")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "relay", OwnerID: a})
	mustJoin(t, r, roomID, a, "")
	mustJoin(t, r, roomID, b, "")
	mustJoin(t, r, roomID, c, "")

	if _, err := r.TransferOwnership(roomID, a, c); err != nil {
		t.Fatalf("a -> c failed: %v", err)
	}
	if _, err := r.TransferOwnership(roomID, c, b); err != nil {
		t.Fatalf("c -> b failed: %v", err)
	}

	if !r.IsOwner(roomID, b) || r.IsOwner(roomID, c) {
		t.Error("expected b to be the only owner")
	}
	if !r.IsModerator(roomID, c) {
		t.Error("previous owner keeps the moderator grant")
	}

	// c остается модератором и может кикать
	if _, err := r.Kick(roomID, c, a); err != nil {
		t.Errorf("former owner should still moderate: %v", err)
	}
}

func TestSnapshotRevisionGrows(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	a := register(t, r, "a")
	b := register(t, r, "b")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "rev", OwnerID: a})
	mustJoin(t, r, roomID, a, "")

	joined, err := r.JoinRoom(roomID, b, "")
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}

	promoted, err := r.PromoteModerator(roomID, a, b)
	if err != nil {
		t.Fatalf("PromoteModerator failed: %v", err)
	}

	read, err := r.RoomState(roomID)
	if err != nil {
		t.Fatalf("RoomState failed: %v", err)
	}

	if joined.Revision == 0 || promoted.Revision <= joined.Revision || read.Revision <= promoted.Revision {
		t.Errorf("revisions must grow: join %d, promote %d, read %d", joined.Revision, promoted.Revision, read.Revision)
	}
}

func TestTransferToNonMember(t *testing.T) {
	for _, allow := range []bool{false, true} {
		r := newTestRegistry(t, memory.RegistryOptions{AllowTransferToNonMember: allow})

		a := register(t, r, "a")
		outsider := register(t, r, "outsider")

		roomID := createRoom(t, r, input.CreateRoomInput{Name: "guarded", OwnerID: a})
		mustJoin(t, r, roomID, a, "")

		_, err := r.TransferOwnership(roomID, a, outsider)

		if allow {
			if err != nil {
				t.Errorf("allow=true: unexpected error %v", err)
			}
			if !r.IsOwner(roomID, outsider) {
				t.Error("allow=true: outsider should own the room")
			}
			continue
		}

		if !errors.Is(err, errs.ErrInvalidOperation) {
			t.Errorf("allow=false: expected ErrInvalidOperation, got %v", err)
		}
		if !r.IsOwner(roomID, a) {
			t.Error("allow=false: ownership must not change")
		}
	}
}

func TestKickByNonModeratorIsForbidden(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")
	b := register(t, r, "b")
	c := register(t, r, "c")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "club", OwnerID: owner})
	mustJoin(t, r, roomID, owner, "")
	mustJoin(t, r, roomID, b, "")
	mustJoin(t, r, roomID, c, "")

	if _, err := r.Kick(roomID, b, c); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	state, _ := r.RoomState(roomID)
	if len(state.Members) != 3 {
		t.Errorf("membership changed after forbidden kick: %d members", len(state.Members))
	}
}

func TestModeratorKicksButCannotKickOwner(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")
	mod := register(t, r, "mod")
	c := register(t, r, "c")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "club", OwnerID: owner})
	mustJoin(t, r, roomID, owner, "")
	mustJoin(t, r, roomID, mod, "")
	mustJoin(t, r, roomID, c, "")

	if _, err := r.PromoteModerator(roomID, owner, mod); err != nil {
		t.Fatalf("PromoteModerator failed: %v", err)
	}

	if _, err := r.Kick(roomID, mod, owner); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation kicking owner, got %v", err)
	}

	dep, err := r.Kick(roomID, mod, c)
	if err != nil {
		t.Fatalf("Kick failed: %v", err)
	}
	if dep.Session.ConnID != "conn-c" {
		t.Errorf("departure must carry target connection, got %q", dep.Session.ConnID)
	}

	// кик не банит
	mustJoin(t, r, roomID, c, "")
}

func TestPromoteAndDemote(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")
	b := register(t, r, "b")
	stranger := register(t, r, "stranger")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "roles", OwnerID: owner})
	mustJoin(t, r, roomID, owner, "")
	mustJoin(t, r, roomID, b, "")

	if _, err := r.PromoteModerator(roomID, owner, owner); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Errorf("promoting the owner must fail with ErrInvalidOperation, got %v", err)
	}

	if _, err := r.PromoteModerator(roomID, b, b); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("non-owner promote must be forbidden, got %v", err)
	}

	state, err := r.PromoteModerator(roomID, owner, b)
	if err != nil {
		t.Fatalf("PromoteModerator failed: %v", err)
	}
	if m, _ := state.Member(b); !m.IsModerator {
		t.Error("snapshot must show b as moderator")
	}

	if _, err = r.DemoteModerator(roomID, owner, b); err != nil {
		t.Fatalf("DemoteModerator failed: %v", err)
	}
	if r.IsModerator(roomID, b) {
		t.Error("b should no longer be a moderator")
	}

	// снятие несуществующего модератора проходит молча
	if _, err = r.DemoteModerator(roomID, owner, stranger); err != nil {
		t.Errorf("lenient demote of a non-member should succeed, got %v", err)
	}
}

func TestStrictDemoteRejectsNonModerators(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{StrictDemote: true})

	owner := register(t, r, "owner")
	stranger := register(t, r, "stranger")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "strict", OwnerID: owner})
	mustJoin(t, r, roomID, owner, "")

	if _, err := r.DemoteModerator(roomID, owner, stranger); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestOwnerOnlySettings(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")
	b := register(t, r, "b")

	room, err := r.CreateRoom(input.CreateRoomInput{Name: "settings", OwnerID: owner})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	mustJoin(t, r, room.ID, owner, "")
	mustJoin(t, r, room.ID, b, "")

	if _, err = r.ChangeRoomName(room.ID, b, "hijacked"); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	state, err := r.ChangeRoomName(room.ID, owner, "<b>renamed</b>")
	if err != nil {
		t.Fatalf("ChangeRoomName failed: %v", err)
	}
	if state.Room.Name != "brenamed/b" {
		t.Errorf("expected sanitized name, got %q", state.Room.Name)
	}

	info, err := r.ChangePassword(room.ID, owner, "newpass")
	if err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if !info.HasPassword {
		t.Error("room should require a password")
	}

	info, err = r.ChangePassword(room.ID, owner, "")
	if err != nil {
		t.Fatalf("ChangePassword clear failed: %v", err)
	}
	if info.HasPassword {
		t.Error("empty password should clear protection")
	}

	code, err := r.RegenerateCode(room.ID, owner)
	if err != nil {
		t.Fatalf("RegenerateCode failed: %v", err)
	}
	if len(code) != 4 {
		t.Errorf("unexpected code %q", code)
	}
	if got, _ := r.GetRoom(room.ID); got.Code != code {
		t.Errorf("room code not updated: %q vs %q", got.Code, code)
	}
}

func TestDeleteRoom(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")
	b := register(t, r, "b")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "doomed", OwnerID: owner})
	mustJoin(t, r, roomID, owner, "")
	mustJoin(t, r, roomID, b, "")

	if _, err := r.DeleteRoom(roomID, b); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	state, err := r.DeleteRoom(roomID, owner)
	if err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if !state.Deleted || len(state.Members) != 2 {
		t.Errorf("expected deleted snapshot with 2 members, got %+v", state)
	}

	if s, _ := r.GetUserByID(b); s.RoomID != "" {
		t.Error("members must be detached from a deleted room")
	}
	if _, err = r.GetRoom(roomID); !errors.Is(err, errs.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestPermanentRoomRejectsDeleteAndRename(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")

	room, err := r.CreateRoom(input.CreateRoomInput{Name: "Lobby", OwnerID: owner, Permanent: true})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	mustJoin(t, r, room.ID, owner, "")

	if _, err = r.DeleteRoom(room.ID, owner); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation on delete, got %v", err)
	}
	if _, err = r.ChangeRoomName(room.ID, owner, "x"); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation on rename, got %v", err)
	}
	if _, err = r.EvictRoom(room.ID); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation on evict, got %v", err)
	}
}

func TestJoinMovesSessionOnlyOnSuccess(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	a := register(t, r, "a")
	x := register(t, r, "x")
	y := register(t, r, "y")

	home := createRoom(t, r, input.CreateRoomInput{Name: "home", OwnerID: a})
	mustJoin(t, r, home, a, "")

	full := createRoom(t, r, input.CreateRoomInput{Name: "full", MaxUsers: 2, OwnerID: x})
	mustJoin(t, r, full, x, "")
	mustJoin(t, r, full, y, "")

	if _, err := r.JoinRoom(full, a, ""); !errors.Is(err, errs.ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
	if s, _ := r.GetUserByID(a); s.RoomID != home {
		t.Fatalf("failed join must keep session in its room, got %q", s.RoomID)
	}

	other := createRoom(t, r, input.CreateRoomInput{Name: "other"})

	info, err := r.JoinRoom(other, a, "")
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	if info.Previous == nil || info.Previous.Room.ID != home || !info.Previous.Deleted {
		t.Errorf("expected previous room %s to be vacated and deleted, got %+v", home, info.Previous)
	}

	if _, err = r.JoinRoom(other, a, ""); !errors.Is(err, errs.ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestRemoveSessionLeavesRoomOwnerless(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")
	b := register(t, r, "b")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "orphan", OwnerID: owner})
	mustJoin(t, r, roomID, owner, "")
	mustJoin(t, r, roomID, b, "")

	dep, ok := r.RemoveSession(owner)
	if !ok {
		t.Fatal("RemoveSession returned false")
	}
	if !dep.Session.IsOwner {
		t.Error("departure view should describe the owner as it was")
	}
	if dep.Room.Room.OwnerID != "" {
		t.Errorf("room must become ownerless, got %q", dep.Room.Room.OwnerID)
	}
	if len(dep.Room.Members) != 1 || dep.Room.Members[0].ID != b {
		t.Errorf("unexpected remaining members: %+v", dep.Room.Members)
	}

	if _, ok = r.GetUserByID(owner); ok {
		t.Error("session must be gone")
	}
	if _, ok = r.SessionByConn("conn-owner"); ok {
		t.Error("connection index must be cleaned")
	}
	if _, ok = r.RemoveSession(owner); ok {
		t.Error("second RemoveSession must report false")
	}
}

func TestDeferredCleanupRemovesNeverJoinedRoom(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{CleanupDelay: 20 * time.Millisecond})

	empty := createRoom(t, r, input.CreateRoomInput{Name: "ghost"})

	a := register(t, r, "a")
	busy := createRoom(t, r, input.CreateRoomInput{Name: "busy", OwnerID: a})
	mustJoin(t, r, busy, a, "")

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := r.GetRoom(empty); errors.Is(err, errs.ErrRoomNotFound) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("empty room was not cleaned up")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := r.GetRoom(busy); err != nil {
		t.Errorf("occupied room must survive cleanup: %v", err)
	}
}

func TestPublicRoomsHideSecrets(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	owner := register(t, r, "owner")
	roomID := createRoom(t, r, input.CreateRoomInput{Name: "secret", Password: "pw", OwnerID: owner})
	mustJoin(t, r, roomID, owner, "pw")

	b := register(t, r, "b")
	mustJoin(t, r, roomID, b, "pw")
	if _, err := r.Ban(roomID, owner, b); err != nil {
		t.Fatalf("Ban failed: %v", err)
	}

	raw, err := json.Marshal(r.PublicRooms())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	body := string(raw)
	if strings.Contains(body, "$2a$") || strings.Contains(strings.ToLower(body), "banned") {
		t.Errorf("public list leaks secrets: %s", body)
	}
	if !strings.Contains(body, `"hasPassword":true`) {
		t.Errorf("public list must flag password: %s", body)
	}
}

func TestCreateRoomClampsAndDefaults(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	cases := []struct {
		in   int
		want int
	}{
		{0, 10},
		{1, 2},
		{500, 100},
		{42, 42},
	}

	for _, tc := range cases {
		room, err := r.CreateRoom(input.CreateRoomInput{MaxUsers: tc.in})
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		if room.MaxUsers != tc.want {
			t.Errorf("maxUsers %d clamped to %d, want %d", tc.in, room.MaxUsers, tc.want)
		}
		if room.Name != "Private Room" {
			t.Errorf("expected default name, got %q", room.Name)
		}
	}

	if _, err := r.CreateRoom(input.CreateRoomInput{Password: strings.Repeat("p", 80)}); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation for long password, got %v", err)
	}
}

func TestStatsAndOnlineUsers(t *testing.T) {
	r := newTestRegistry(t, memory.RegistryOptions{})

	a := register(t, r, "a")
	b := register(t, r, "b")

	roomID := createRoom(t, r, input.CreateRoomInput{Name: "stats", OwnerID: a})
	mustJoin(t, r, roomID, a, "")
	mustJoin(t, r, roomID, b, "")
	createRoom(t, r, input.CreateRoomInput{Name: "idle"})

	if _, err := r.SetAudioStatus(b, true, false); err != nil {
		t.Fatalf("SetAudioStatus failed: %v", err)
	}

	stats := r.Stats()
	if stats.CurrentUsers != 2 || stats.TotalRooms != 2 || stats.AvgRoomSize != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	users := r.OnlineUsers()
	if len(users) != 2 {
		t.Fatalf("expected 2 online users, got %d", len(users))
	}
	for _, u := range users {
		if u.ID == b && !u.Muted {
			t.Error("b should be reported muted")
		}
		if u.RoomID != roomID {
			t.Errorf("user %s should be in room %s, got %q", u.ID, roomID, u.RoomID)
		}
	}

	if _, err := r.SetAudioStatus("ghost", true, true); !errors.Is(err, errs.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}
