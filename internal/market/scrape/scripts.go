package scrape

// Page scripts are evaluated in the listing page and return plain JSON so that
// all interpretation happens on the Go side.

const acceptConsentJS = `(() => {
	const btn = Array.from(document.querySelectorAll('button')).find(b => (b.innerText || '').includes('Accept'));
	if (btn) { btn.click(); return true; }
	return false;
})()`

const selectCEXTabJS = `(() => {
	const btn = Array.from(document.querySelectorAll('button')).find(b => (b.innerText || '').includes('CEX'));
	if (btn) { btn.click(); return true; }
	return false;
})()`

const selectDEXTabJS = `(() => {
	const tab = document.querySelector("li[data-test='dex']");
	if (!tab) { return false; }
	if (!/selected/i.test(tab.className || '')) {
		tab.scrollIntoView(true);
		tab.click();
	}
	return true;
})()`

const readTableJS = `(() => {
	const table = document.querySelector('table');
	if (!table) { return {headers: [], rows: []}; }
	const headers = Array.from(table.querySelectorAll('th')).map(h => (h.innerText || '').trim().toLowerCase());
	const rows = Array.from(table.querySelectorAll('tr')).slice(1).map(tr => {
		const cells = Array.from(tr.querySelectorAll('td'));
		const anchor = cells.length > 2 ? cells[2].querySelector('a') : null;
		return {cells: cells.map(td => (td.innerText || '').trim()), link: anchor ? anchor.href : ''};
	});
	return {headers: headers, rows: rows};
})()`

const readStatsJS = `(() => {
	const out = [];
	for (const dl of document.querySelectorAll('dl')) {
		const dts = dl.querySelectorAll('dt');
		const dds = dl.querySelectorAll('dd');
		const n = Math.min(dts.length, dds.length);
		for (let i = 0; i < n; i++) {
			out.push({label: (dts[i].innerText || '').trim(), value: (dds[i].innerText || '').trim()});
		}
	}
	return out;
})()`

const readPairLiquidityJS = `(() => {
	const labels = Array.from(document.querySelectorAll('div')).filter(d => d.children.length === 0 && (d.textContent || '').trim() === 'Liquidity');
	for (const label of labels) {
		const parent = label.parentElement;
		if (!parent) { continue; }
		const value = Array.from(parent.children).find(c => c !== label && (c.textContent || '').includes('$'));
		if (value) { return value.textContent.trim(); }
	}
	for (const dl of document.querySelectorAll('dl')) {
		const dts = dl.querySelectorAll('dt');
		const dds = dl.querySelectorAll('dd');
		const n = Math.min(dts.length, dds.length);
		for (let i = 0; i < n; i++) {
			if ((dts[i].textContent || '').trim().toLowerCase().includes('liquidity')) {
				return dds[i].textContent.trim();
			}
		}
	}
	return '';
})()`
