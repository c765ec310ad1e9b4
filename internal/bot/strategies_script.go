package bot

import (
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"whist/internal/domain"
)

// DefaultScript is used when no strategy file is configured. A script defines
// bid(ctx), trump(ctx) and play(ctx); ctx carries the bot's view.
const DefaultScript = `
function bid(ctx)
  local n = 0
  for _, c in ipairs(ctx.hand) do
    local r = string.sub(c, 1, 1)
    if r == "A" or r == "K" then n = n + 1 end
  end
  return n
end

function trump(ctx)
  local counts = {S = 0, H = 0, D = 0, C = 0}
  for _, c in ipairs(ctx.hand) do
    local s = string.sub(c, 2, 2)
    counts[s] = counts[s] + 1
  end
  local best, most = "NT", 1
  for _, s in ipairs({"S", "H", "D", "C"}) do
    if counts[s] > most then best, most = s, counts[s] end
  end
  return best
end

function play(ctx)
  return ctx.legal[1]
end
`

var (
	scriptMu     sync.RWMutex
	scriptSource = DefaultScript
)

// LoadScript reads a Lua strategy file and makes it the source for new script
// bots. The script is compiled once up front so errors surface at load time.
func LoadScript(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read bot script: %w", err)
	}
	return SetScript(string(data))
}

// SetScript validates and installs source for new script bots.
func SetScript(source string) error {
	b, err := NewScriptBot(source)
	if err != nil {
		return err
	}
	b.Close()
	scriptMu.Lock()
	scriptSource = source
	scriptMu.Unlock()
	return nil
}

func currentScript() string {
	scriptMu.RLock()
	defer scriptMu.RUnlock()
	return scriptSource
}

// ScriptBot delegates decisions to a Lua script. An LState is not safe for
// concurrent use so calls are serialised.
type ScriptBot struct {
	mu sync.Mutex
	L  *lua.LState
}

// NewScriptBot compiles source and checks that the three entry points exist.
func NewScriptBot(source string) (*ScriptBot, error) {
	L := lua.NewState()
	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load bot script: %w", err)
	}
	for _, fn := range []string{"bid", "trump", "play"} {
		if L.GetGlobal(fn).Type() != lua.LTFunction {
			L.Close()
			return nil, fmt.Errorf("bot script does not define %s(ctx)", fn)
		}
	}
	return &ScriptBot{L: L}, nil
}

// Close releases the Lua state.
func (b *ScriptBot) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.L != nil {
		b.L.Close()
		b.L = nil
	}
}

func cardList(L *lua.LState, cards []domain.Card) *lua.LTable {
	t := L.NewTable()
	for _, c := range cards {
		t.Append(lua.LString(c.String()))
	}
	return t
}

func (b *ScriptBot) context(v domain.GameView) *lua.LTable {
	L := b.L
	ctx := L.NewTable()
	ctx.RawSetString("seat", lua.LNumber(v.ViewerSeat))
	ctx.RawSetString("round", lua.LNumber(v.Round))
	ctx.RawSetString("cards_dealt", lua.LNumber(v.CardsDealt))
	ctx.RawSetString("dealer", lua.LNumber(v.Dealer))
	ctx.RawSetString("trump", lua.LString(string(v.Trump)))
	ctx.RawSetString("led", lua.LString(v.LedSuit().String()))
	ctx.RawSetString("hand", cardList(L, v.Hand))
	ctx.RawSetString("legal", cardList(L, legalPlays(v)))

	bids := L.NewTable()
	won := L.NewTable()
	for _, p := range v.Players {
		won.RawSetInt(p.Seat+1, lua.LNumber(p.TricksWon))
		if p.Bid != nil {
			bids.RawSetInt(p.Seat+1, lua.LNumber(*p.Bid))
		}
	}
	ctx.RawSetString("bids", bids)
	ctx.RawSetString("tricks_won", won)

	trick := L.NewTable()
	if v.CurrentTrick != nil {
		for _, p := range v.CurrentTrick.Plays {
			trick.Append(lua.LString(p.Card.String()))
		}
	}
	ctx.RawSetString("trick", trick)
	return ctx
}

func (b *ScriptBot) call(fn string, v domain.GameView) (lua.LValue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.L == nil {
		return lua.LNil, fmt.Errorf("bot script closed")
	}
	if err := b.L.CallByParam(lua.P{
		Fn:      b.L.GetGlobal(fn),
		NRet:    1,
		Protect: true,
	}, b.context(v)); err != nil {
		return lua.LNil, fmt.Errorf("bot script %s failed: %w", fn, err)
	}
	ret := b.L.Get(-1)
	b.L.Pop(1)
	return ret, nil
}

func (b *ScriptBot) ChooseBid(v domain.GameView) (int, error) {
	ret, err := b.call("bid", v)
	if err != nil {
		return 0, err
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("bot script bid returned %s", ret.Type())
	}
	return int(n), nil
}

func (b *ScriptBot) ChooseTrump(v domain.GameView) (domain.Trump, error) {
	ret, err := b.call("trump", v)
	if err != nil {
		return domain.TrumpUnset, err
	}
	return domain.ParseTrump(lua.LVAsString(ret))
}

func (b *ScriptBot) ChoosePlay(v domain.GameView) (domain.Card, error) {
	ret, err := b.call("play", v)
	if err != nil {
		return domain.Card{}, err
	}
	return domain.ParseCard(lua.LVAsString(ret))
}
