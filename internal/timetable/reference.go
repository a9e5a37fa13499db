package timetable

import "bellboard/internal/model"

// referenceItems is the regular bell schedule the board ships with.
var referenceItems = []model.AgendaItem{
	{Label: "Period 1", Kind: model.KindPeriod, Start: model.At(8, 30), End: model.At(9, 22)},
	{Label: "Period 2", Kind: model.KindPeriod, Start: model.At(9, 28), End: model.At(10, 20)},
	{Label: "Break", Kind: model.KindBreak, Start: model.At(10, 20), End: model.At(10, 25)},
	{Label: "Read", Kind: model.KindBreak, Start: model.At(10, 31), End: model.At(10, 50)},
	{Label: "Period 3", Kind: model.KindPeriod, Start: model.At(10, 50), End: model.At(11, 42)},
	{Label: "Period 4", Kind: model.KindPeriod, Start: model.At(11, 48), End: model.At(12, 40)},
	{Label: "Lunch", Kind: model.KindBreak, Start: model.At(12, 40), End: model.At(13, 15)},
	{Label: "Period 5", Kind: model.KindPeriod, Start: model.At(13, 21), End: model.At(14, 13)},
	{Label: "Period 6", Kind: model.KindPeriod, Start: model.At(14, 19), End: model.At(15, 11)},
}

var reference = MustNew(referenceItems)

// Reference returns the compiled-in bell schedule.
func Reference() *Timetable {
	return reference
}
