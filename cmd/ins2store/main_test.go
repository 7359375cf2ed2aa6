package main

import (
	"strings"
	"testing"
)

func TestReadL2TCSV(t *testing.T) {
	const csv = `datetime,timezone,MACB,source,sourcetype,type,user,host,desc,filename,inode,notes,format,extra,reportnotes,inreport,tag,color,offset,store_number,store_index,vss_store_number,bookmark
2026-01-15 10:30:00,UTC,M...,WEBHIST,fs:stat,Last Written,admin,WORKSTATION1,file was written,/Users/admin/test.txt,12345,,filestat,sample body,,,important,,0,1,2,-1,0
`
	events, err := readL2TCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("readL2TCSV: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.DataType != "fs:stat" {
		t.Errorf("DataType = %q, want fs:stat", ev.DataType)
	}
	if ev.Parser != "filestat" {
		t.Errorf("Parser = %q, want filestat", ev.Parser)
	}
	if ev.TimestampDesc != "Last Written" {
		t.Errorf("TimestampDesc = %q", ev.TimestampDesc)
	}
	if v, _ := ev.Get("body"); v.DisplayString() != "sample body" {
		t.Errorf("body = %q", v.DisplayString())
	}
	if v, _ := ev.Get("tag"); v.DisplayString() != "important" {
		t.Errorf("tag = %q", v.DisplayString())
	}
}

func TestReadL2TCSVHeaderMismatch(t *testing.T) {
	_, err := readL2TCSV(strings.NewReader("wrong,header\n1,2\n"))
	if err == nil {
		t.Fatal("expected header mismatch error, got nil")
	}
}

func TestReadDynamicCSV(t *testing.T) {
	const csv = `datetime,timestamp_desc,source,sourcetype,desc,format,filename,host,user,macb,tag,inode,timezone,notes,extra
2026-01-15 10:30:00,Last Written,WEBHIST,fs:stat,file was written,filestat,/Users/admin/test.txt,WORKSTATION1,admin,M...,important,12345,UTC,,sample body
`
	events, err := readDynamicCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("readDynamicCSV: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Parser != "filestat" {
		t.Errorf("Parser = %q, want filestat", ev.Parser)
	}
	if ev.DataType != "fs:stat" {
		t.Errorf("DataType = %q, want fs:stat", ev.DataType)
	}
	if v, _ := ev.Get("body"); v.DisplayString() != "sample body" {
		t.Errorf("body = %q", v.DisplayString())
	}
}

func TestReadDynamicCSVUnrecognizedHeader(t *testing.T) {
	_, err := readDynamicCSV(strings.NewReader("foo,bar\n1,2\n"))
	if err == nil {
		t.Fatal("expected unrecognized-header error, got nil")
	}
}

func TestReadTLNL2TTLN(t *testing.T) {
	const tln = "Time|Source|Host|User|Description|TZ|Notes\n" +
		"1768472200|WEBHIST|WORKSTATION1|admin|file was written|UTC|some notes\n"
	events, err := readTLN(strings.NewReader(tln))
	if err != nil {
		t.Fatalf("readTLN: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Parser != "WEBHIST" {
		t.Errorf("Parser = %q, want WEBHIST", ev.Parser)
	}
	if ev.Timestamp != 1768472200*1_000_000 {
		t.Errorf("Timestamp = %d", ev.Timestamp)
	}
	if v, _ := ev.Get("notes"); v.DisplayString() != "some notes" {
		t.Errorf("notes = %q", v.DisplayString())
	}
}

func TestReadTLNPlain(t *testing.T) {
	const tln = "Time|Source|Host|User|Description\n" +
		"1768472200|WEBHIST|WORKSTATION1|admin|file was written\n"
	events, err := readTLN(strings.NewReader(tln))
	if err != nil {
		t.Fatalf("readTLN: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if v, ok := events[0].Get("timezone"); ok {
		t.Errorf("unexpected timezone attribute on 5-field TLN: %q", v.DisplayString())
	}
}

func TestReadJSONL(t *testing.T) {
	const jsonl = `{"timestamp":1768472200000000,"timestamp_desc":"Last Written","data_type":"fs:stat","parser":"filestat","attributes":{"filename":"/etc/shadow","inode":42}}
`
	events, err := readJSONL(strings.NewReader(jsonl))
	if err != nil {
		t.Fatalf("readJSONL: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.DataType != "fs:stat" || ev.Parser != "filestat" {
		t.Errorf("unexpected DataType/Parser: %q/%q", ev.DataType, ev.Parser)
	}
	if v, _ := ev.Get("filename"); v.DisplayString() != "/etc/shadow" {
		t.Errorf("filename = %q", v.DisplayString())
	}
	if v, _ := ev.Get("inode"); v.DisplayString() != "42" {
		t.Errorf("inode = %q", v.DisplayString())
	}
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	const jsonl = "not json\n" + `{"timestamp":1,"data_type":"x","parser":"y","attributes":{}}` + "\n"
	events, err := readJSONL(strings.NewReader(jsonl))
	if err != nil {
		t.Fatalf("readJSONL: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after skipping malformed line, got %d", len(events))
	}
}

func TestReadTLNBadFieldCount(t *testing.T) {
	_, err := readTLN(strings.NewReader("1|2|3|4\n"))
	if err == nil {
		t.Fatal("expected field-count error, got nil")
	}
}
