// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

// gamesProvider decodes game-by-date payloads: an array of game objects
// with team keys, scores (null until the game starts), and a status string.
type gamesProvider struct{}

var (
	gameTimeKeys  = []string{"DateTime", "DateTimeUTC", "Day"}
	homeTeamKeys  = []string{"HomeTeam", "HomeTeamName"}
	awayTeamKeys  = []string{"AwayTeam", "AwayTeamName"}
	homeScoreKeys = []string{"HomeTeamScore", "HomeTeamRuns", "HomeScore"}
	awayScoreKeys = []string{"AwayTeamScore", "AwayTeamRuns", "AwayScore"}
)

func (gamesProvider) Kind() types.ProviderKind { return types.ProviderSportsdataGames }

func (gamesProvider) SampleKind() types.SampleKind { return types.SampleGame }

func (gamesProvider) Decode(raw []byte, opts Options, yield func(types.EvidenceSample) bool) error {
	page, err := parseJSON(raw)
	if err != nil {
		return err
	}
	arr := page
	if opts.DataPath != "" {
		arr = page.Get(opts.DataPath)
	}
	if arr.IsObject() {
		// A single-game endpoint returns the object itself.
		s, err := decodeGame(arr, opts)
		if err != nil {
			return shapeError(0, "%v", err)
		}
		yield(s)
		return nil
	}
	if !arr.IsArray() {
		return shapeError(-1, "expected an array of games")
	}
	return eachRow(arr, func(i int, game gjson.Result) (bool, error) {
		s, err := decodeGame(game, opts)
		if err != nil {
			return false, shapeError(i, "%v", err)
		}
		return yield(s), nil
	})
}

func decodeGame(obj gjson.Result, opts Options) (types.EvidenceSample, error) {
	if !obj.IsObject() {
		return types.EvidenceSample{}, fmt.Errorf("expected a game object, got %s", obj.Type)
	}
	status := obj.Get("Status")
	if status.Type != gjson.String {
		return types.EvidenceSample{}, fmt.Errorf("missing Status")
	}
	home := firstOf(obj, homeTeamKeys)
	away := firstOf(obj, awayTeamKeys)
	if home.Type != gjson.String || away.Type != gjson.String {
		return types.EvidenceSample{}, fmt.Errorf("missing team keys")
	}

	g := types.GameResult{
		HomeTeam: home.Str,
		AwayTeam: away.Str,
		Status:   status.Str,
	}
	var err error
	if g.HomeScore, err = optionalFloat(firstOf(obj, homeScoreKeys)); err != nil {
		return types.EvidenceSample{}, fmt.Errorf("home score: %v", err)
	}
	if g.AwayScore, err = optionalFloat(firstOf(obj, awayScoreKeys)); err != nil {
		return types.EvidenceSample{}, fmt.Errorf("away score: %v", err)
	}

	var ts int64
	if t := firstOf(obj, gameTimeKeys); t.Exists() && t.Type != gjson.Null {
		if ts, err = toMillis(t, opts.Location); err != nil {
			return types.EvidenceSample{}, fmt.Errorf("game time: %v", err)
		}
	}
	return types.EvidenceSample{TimestampMS: ts, Kind: types.SampleGame, Game: g}, nil
}
