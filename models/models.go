package models

// All listet alle Modelle für AutoMigrate, in Abhängigkeitsreihenfolge.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Indication{},
		&Procedure{},
		&ClinicalStudy{},
		&StudyIndication{},
		&StudyProcedure{},
		&DataProduct{},
		&ScientificPaper{},
		&DataDomain{},
		&SearchHistory{},
		&Collection{},
		&CollectionItem{},
		&ImportTopic{},
	}
}
