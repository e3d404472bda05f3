// internal/model/topic.go
package model

import "fmt"

// 試験の公式な出題分野。topic値はオープンエンドなので、
// ここに無い値も拒否せず "Topic N" として扱う。
var topicNamesEN = map[int]string{
	1: "National Symbols & Holidays",
	2: "Hungarian History",
	3: "Literature & Music",
	4: "Fundamental Law & Institutions",
	5: "Citizens' Rights",
	6: "Everyday Hungary",
}

var topicNamesHU = map[int]string{
	1: "Nemzeti jelképek és ünnepek",
	2: "Magyar történelem",
	3: "Irodalom és zene",
	4: "Alaptörvény és intézmények",
	5: "Állampolgári jogok",
	6: "Mindennapi Magyarország",
}

// TopicNameEN は分野の英語名を返します（未知の値はフォールバック）
func TopicNameEN(topic int) string {
	if name, ok := topicNamesEN[topic]; ok {
		return name
	}
	return fmt.Sprintf("Topic %d", topic)
}

// TopicNameHU は分野のハンガリー語名を返します
func TopicNameHU(topic int) string {
	if name, ok := topicNamesHU[topic]; ok {
		return name
	}
	return fmt.Sprintf("Topic %d", topic)
}
