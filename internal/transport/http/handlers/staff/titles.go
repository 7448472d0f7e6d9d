package staffhandler

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"staff/internal/domain/staff"
)

type verboseName struct {
	singular string
	plural   string
}

var verboseNames = map[string]verboseName{
	staff.EntityPosition: {singular: "должность", plural: "должности"},
	staff.EntitySchedule: {singular: "график", plural: "графики"},
	staff.EntityEmployee: {singular: "сотрудник", plural: "сотрудники"},
	staff.EntityPayroll:  {singular: "выплата", plural: "выплаты"},
}

const dashboardTitle = "Главная"

// pageTitle is the capitalised verbose name of entity, "Запись" for unknown ones.
func pageTitle(entity string, plural bool) string {
	name := "запись"
	if vn, ok := verboseNames[entity]; ok {
		name = vn.singular
		if plural {
			name = vn.plural
		}
	}
	return cases.Title(language.Russian).String(name)
}
