// Package reminder fires task_reminder notifications on configured schedules.
//
// Each firing sends exactly one notification. Missed firings (daemon down,
// clock jumps) are not caught up and a failed delivery is not retried; the
// next scheduled firing is the only follow-up.
package reminder
