package models

// Tables lists every model migrated at startup, parents before children.
var Tables = []interface{}{
	&User{},
	&Product{},
	&QrRecord{},
	&ScanLog{},
	&Batch{},
	&Item{},
	&GramScanLog{},
	&FeedbackEntry{},
	&DeleteHistory{},
	&DeleteBatch{},
}
