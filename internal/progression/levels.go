package progression

// levelThresholds[i] is the cumulative XP below which a user is still at
// level i+1, covering levels 1 through 10.
var levelThresholds = []int64{100, 250, 450, 700, 950, 1300, 1800, 2400, 3100, 3900}

// LevelForXP derives the level for a cumulative XP total. The derivation
// is a pure function of xp, so recomputation is idempotent.
func LevelForXP(xp int64) int {
	for i, threshold := range levelThresholds {
		if xp < threshold {
			return i + 1
		}
	}

	// Beyond level 10 each step costs 100 more than the previous one,
	// starting from a 500 XP increment.
	level := 10
	remaining := xp - levelThresholds[len(levelThresholds)-1]
	for remaining >= int64(500+(level-10)*100) {
		remaining -= int64(500 + (level-10)*100)
		level++
	}
	return level
}

// XPForNextLevel returns the XP increment from currentLevel to the next.
func XPForNextLevel(currentLevel int) int64 {
	switch currentLevel {
	case 1:
		return 100
	case 2:
		return 150
	case 3:
		return 200
	case 4:
		return 250
	case 5:
		return 250
	case 6:
		return 350
	case 7:
		return 500
	case 8:
		return 600
	case 9:
		return 700
	case 10:
		return 800
	}
	return int64(500 + (currentLevel-10)*100)
}

// TotalXPForLevel returns the cumulative XP at which a level begins.
func TotalXPForLevel(level int) int64 {
	switch level {
	case 1:
		return 0
	case 2:
		return 100
	case 3:
		return 250
	case 4:
		return 450
	case 5:
		return 700
	case 6:
		return 950
	case 7:
		return 1300
	case 8:
		return 1800
	case 9:
		return 2400
	case 10:
		return 3100
	}

	total := int64(3100)
	for i := 11; i <= level; i++ {
		total += XPForNextLevel(i - 1)
	}
	return total
}
