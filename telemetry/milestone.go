package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/DevonLowjamski/chimera-genetics/config"
)

// MilestoneType identifies the type of milestone.
type MilestoneType string

const (
	MilestoneScoreBreakthrough MilestoneType = "score_breakthrough"
	MilestoneDiversityCollapse MilestoneType = "diversity_collapse"
	MilestoneDiversityRecovery MilestoneType = "diversity_recovery"
	MilestoneTargetReached     MilestoneType = "target_reached"
	MilestoneScorePlateau      MilestoneType = "score_plateau"
)

// Milestone represents an automatically detected breeding program event.
type Milestone struct {
	Type        MilestoneType `csv:"type"`
	Generation  int           `csv:"generation"`
	Description string        `csv:"description"`
}

// LogMilestone logs the milestone using slog.
func (m Milestone) LogMilestone() {
	slog.Info("milestone",
		"type", string(m.Type),
		"generation", m.Generation,
		"description", m.Description,
	)
}

// MilestoneDetector detects interesting moments in a breeding program.
type MilestoneDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	// Thresholds from configuration
	scoreJump      float64
	diversityFloor float64
	targetScore    float64

	// State tracking
	collapsed       bool    // diversity currently below the floor
	targetReached   bool    // target score hit at least once
	flatGenerations int     // consecutive generations without best-score improvement
	prevBest        float64 // best score of the previous generation
	hasPrev         bool
}

// NewMilestoneDetector creates a detector with the configured history window
// and thresholds.
func NewMilestoneDetector(cfg config.TelemetryConfig) *MilestoneDetector {
	historySize := cfg.HistoryWindow
	if historySize < 5 {
		historySize = 5 // minimum for plateau detection
	}
	return &MilestoneDetector{
		history:        make([]GenerationStats, historySize),
		historySize:    historySize,
		scoreJump:      cfg.ScoreJump,
		diversityFloor: cfg.DiversityFloor,
		targetScore:    cfg.TargetScore,
	}
}

// Check analyzes the latest stats and returns any triggered milestones.
func (md *MilestoneDetector) Check(stats GenerationStats) []Milestone {
	var milestones []Milestone

	if md.historyFull || md.historyIdx > 0 {
		// Score breakthrough: best score jumped over the rolling mean
		if m := md.checkScoreBreakthrough(stats); m != nil {
			milestones = append(milestones, *m)
		}

		// Diversity collapse: diversity dropped below the floor
		if m := md.checkDiversityCollapse(stats); m != nil {
			milestones = append(milestones, *m)
		}

		// Diversity recovery: was collapsed, now well above the floor
		if m := md.checkDiversityRecovery(stats); m != nil {
			milestones = append(milestones, *m)
		}

		// Target reached: best score hit the program goal
		if m := md.checkTargetReached(stats); m != nil {
			milestones = append(milestones, *m)
		}

		// Score plateau: no best-score improvement over a full window
		if m := md.checkScorePlateau(stats); m != nil {
			milestones = append(milestones, *m)
		}
	}

	// Update history
	md.addToHistory(stats)

	// Track the previous best for plateau detection
	md.prevBest = stats.BestScore
	md.hasPrev = true

	return milestones
}

func (md *MilestoneDetector) addToHistory(stats GenerationStats) {
	md.history[md.historyIdx] = stats
	md.historyIdx = (md.historyIdx + 1) % md.historySize
	if md.historyIdx == 0 {
		md.historyFull = true
	}
}

func (md *MilestoneDetector) getHistory() []GenerationStats {
	if md.historyFull {
		return md.history
	}
	return md.history[:md.historyIdx]
}

func (md *MilestoneDetector) checkScoreBreakthrough(stats GenerationStats) *Milestone {
	history := md.getHistory()
	if len(history) < 3 || md.scoreJump <= 0 {
		return nil
	}

	// Rolling mean of best scores
	var total float64
	for _, h := range history {
		total += h.BestScore
	}
	mean := total / float64(len(history))

	if stats.BestScore > mean+md.scoreJump {
		return &Milestone{
			Type:        MilestoneScoreBreakthrough,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Best score %.3f is %.3f above the %d-generation mean %.3f", stats.BestScore, stats.BestScore-mean, len(history), mean),
		}
	}

	return nil
}

func (md *MilestoneDetector) checkDiversityCollapse(stats GenerationStats) *Milestone {
	if md.collapsed || md.diversityFloor <= 0 || stats.Population == 0 {
		return nil
	}

	if stats.DiversityScore < md.diversityFloor {
		md.collapsed = true
		return &Milestone{
			Type:        MilestoneDiversityCollapse,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Diversity %.3f fell below floor %.3f", stats.DiversityScore, md.diversityFloor),
		}
	}

	return nil
}

func (md *MilestoneDetector) checkDiversityRecovery(stats GenerationStats) *Milestone {
	if !md.collapsed {
		return nil
	}

	// Require clearing twice the floor before re-arming collapse detection
	threshold := md.diversityFloor * 2
	if stats.DiversityScore >= threshold {
		md.collapsed = false
		return &Milestone{
			Type:        MilestoneDiversityRecovery,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Diversity recovered to %.3f after collapsing below %.3f", stats.DiversityScore, md.diversityFloor),
		}
	}

	return nil
}

func (md *MilestoneDetector) checkTargetReached(stats GenerationStats) *Milestone {
	if md.targetReached || md.targetScore <= 0 {
		return nil
	}

	if stats.BestScore >= md.targetScore {
		md.targetReached = true
		return &Milestone{
			Type:        MilestoneTargetReached,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Best score %.3f reached target %.3f", stats.BestScore, md.targetScore),
		}
	}

	return nil
}

func (md *MilestoneDetector) checkScorePlateau(stats GenerationStats) *Milestone {
	if !md.hasPrev {
		return nil
	}

	const improvementEps = 1e-9
	if stats.BestScore <= md.prevBest+improvementEps {
		md.flatGenerations++
	} else {
		md.flatGenerations = 0
	}

	if md.flatGenerations == md.historySize { // trigger exactly once per plateau
		return &Milestone{
			Type:        MilestoneScorePlateau,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Best score flat at %.3f for %d generations", stats.BestScore, md.flatGenerations),
		}
	}

	return nil
}
