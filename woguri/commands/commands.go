package commands

import "github.com/disgoorg/disgo/discord"

var Commands = []discord.ApplicationCommandCreate{
	AddScore,
	FixScore,
	Leaderboard,
	AllTime,
	Stats,
	LeaderboardStatus,
	ResetScores,
	Version,
}
