package world

import "sort"

// Snapshot returns the effects that rebuild the current world from an empty
// scene: the active scene, panels, labels, then every live instance with
// its ball. Objects are listed by name.
func (w *World) Snapshot() []Effect {
	var out []Effect
	if w.scenes.active != "" {
		out = append(out, Effect{Kind: EffectScene, Scene: w.scenes.active})
	}

	for _, name := range sortedKeys(w.panels) {
		out = append(out, Effect{Kind: EffectActive, Target: name, Active: boolPtr(w.panels[name].active)})
	}
	for _, name := range sortedKeys(w.labels) {
		text := w.labels[name].text
		out = append(out, Effect{Kind: EffectText, Target: name, Text: &text})
	}

	for _, name := range w.Instances() {
		inst := w.instances[name]
		out = append(out, Effect{Kind: EffectSpawn, Target: name, Parent: inst.parent, Prefab: inst.prefab})
		if !inst.active {
			out = append(out, Effect{Kind: EffectActive, Target: name, Active: boolPtr(false)})
		}
		if b := inst.ball; b != nil {
			pose, linear, angular := b.pose, b.linear, b.angular
			out = append(out,
				Effect{Kind: EffectPose, Target: b.name, Pose: &pose},
				Effect{Kind: EffectVelocity, Target: b.name, Linear: &linear, Angular: &angular},
				Effect{Kind: EffectPhysics, Target: b.name, Kinematic: boolPtr(b.kinematic), DetectCollisions: boolPtr(b.detect)},
			)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
