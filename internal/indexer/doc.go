// Package indexer считает сводки раскладки опубликованных версий.
//
// Indexer слушает process.version_created, загружает YAML версии,
// строит раскладку (engine.BuildLayout) и сохраняет сводку в
// process_layouts. Битые события подтверждаются и отбрасываются,
// ошибки хранилища возвращают сообщение в очередь.
package indexer
