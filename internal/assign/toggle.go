package assign

import "checklistd/internal/types"

// ToggleTask flips the completion flag of one task, addressed by
// (originID, taskID). Only the touched bundle, its task slice, and the task
// itself are copied; every other bundle and task is shared with the input.
//
// When no bundle matches originID, or no task matches taskID, the input is
// returned unchanged with changed=false. That is a silent no-op rather than
// an error: the bundle may have been removed concurrently by a
// cascade-delete.
func ToggleTask(bundles []types.Bundle, originID, taskID string) (out []types.Bundle, changed bool) {
	bi := bundleIndex(bundles, originID)
	if bi < 0 {
		return bundles, false
	}
	ti := taskIndex(bundles[bi].Tasks, taskID)
	if ti < 0 {
		return bundles, false
	}

	tasks := make([]types.TaskInstance, len(bundles[bi].Tasks))
	copy(tasks, bundles[bi].Tasks)
	tasks[ti].Completed = !tasks[ti].Completed

	return replaceTasks(bundles, bi, tasks), true
}

// ToggleSubTask flips the completion flag of one subtask, addressed by
// (originID, taskID, subTaskID). The parent task's flag is never touched;
// task and subtask completion are independent. Missing ids at any level make
// this a silent no-op, same as ToggleTask.
func ToggleSubTask(bundles []types.Bundle, originID, taskID, subTaskID string) (out []types.Bundle, changed bool) {
	bi := bundleIndex(bundles, originID)
	if bi < 0 {
		return bundles, false
	}
	ti := taskIndex(bundles[bi].Tasks, taskID)
	if ti < 0 {
		return bundles, false
	}
	si := -1
	for i, st := range bundles[bi].Tasks[ti].SubTasks {
		if st.ID == subTaskID {
			si = i
			break
		}
	}
	if si < 0 {
		return bundles, false
	}

	subs := make([]types.SubTaskInstance, len(bundles[bi].Tasks[ti].SubTasks))
	copy(subs, bundles[bi].Tasks[ti].SubTasks)
	subs[si].Completed = !subs[si].Completed

	tasks := make([]types.TaskInstance, len(bundles[bi].Tasks))
	copy(tasks, bundles[bi].Tasks)
	tasks[ti].SubTasks = subs

	return replaceTasks(bundles, bi, tasks), true
}

func bundleIndex(bundles []types.Bundle, originID string) int {
	for i, b := range bundles {
		if b.OriginID == originID {
			return i
		}
	}
	return -1
}

func taskIndex(tasks []types.TaskInstance, taskID string) int {
	for i, t := range tasks {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

func replaceTasks(bundles []types.Bundle, bi int, tasks []types.TaskInstance) []types.Bundle {
	out := make([]types.Bundle, len(bundles))
	copy(out, bundles)
	out[bi].Tasks = tasks
	return out
}
